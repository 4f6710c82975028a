// Package history archives terminal jobs to a local SQLite database.
//
// The archive is append-only relative to the in-memory job store: terminal
// transitions are recorded as they happen so past sessions stay inspectable,
// but nothing is ever read back into the store. An flock-guarded lock file
// next to the database keeps concurrent morph invocations from interleaving
// writes.
package history
