// Package jobs defines the conversion job data model shared across the
// submission, polling, and lifecycle layers.
//
// A Job mirrors the record the remote conversion service returns: an opaque
// job_id, a four-state lifecycle status, and optional result metadata
// (download URL, message, processing time, output size). ProcessingOptions
// carries the optional per-conversion transform parameters and knows how to
// serialize itself into multipart form fields, omitting unset values so the
// server applies its own defaults.
//
// Treat this package as the single source of truth for job semantics; status
// additions must update the terminal-state rules here.
package jobs
