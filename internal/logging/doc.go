// Package logging builds the slog loggers used across morph.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for machine consumption. Attr helpers and standardized field
// keys keep log output consistent between components.
package logging
