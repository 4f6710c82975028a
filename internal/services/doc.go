// Package services holds the shared error taxonomy and context helpers used
// by the submission, polling, and lifecycle components.
//
// Errors are tagged with one of the exported sentinel markers so the
// lifecycle controller can classify a failure into a notification severity
// without string matching. Context helpers carry job and correlation
// identifiers for structured logging.
package services
