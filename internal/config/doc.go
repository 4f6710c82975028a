// Package config loads, normalizes, and validates the morph configuration.
//
// Configuration lives in a TOML file (default ~/.config/morph/config.toml,
// with a project-local morph.toml fallback) and is split into sections per
// subsystem: server connection, polling cadence, notifications, history
// archive, and logging. Load applies defaults first, then the file, then
// normalization (path expansion, URL trimming) and validation, so every
// consumer sees a fully resolved Config.
package config
