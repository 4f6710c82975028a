// Package submission validates and dispatches conversion requests.
//
// The service owns the preflight rules the server would otherwise enforce a
// round-trip later (file count, file size, readable paths), chooses between
// the single-file and batch endpoints, and inserts accepted records into the
// job store atomically: a submission either lands every record or none.
package submission
