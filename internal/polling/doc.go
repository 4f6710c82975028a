// Package polling drives per-job status loops against the conversion
// service.
//
// Each tracked job gets one goroutine that alternates between sleeping for
// the configured interval and fetching the job's server-side state, merging
// the result into the job store. Loops end on their own when the job reaches
// a terminal status, when the server no longer knows the id, or when the
// record disappears from the store (a cooperative cancellation signal from
// deletes). Fetches for a single job are strictly sequential.
package polling
