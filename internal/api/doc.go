// Package api implements the HTTP client for the remote conversion service.
//
// The client speaks the service's REST surface: multipart submissions
// (single and batch), job status queries, deletes, artifact downloads, and
// the health/stats endpoints. Every request carries a correlation id so
// server logs can be matched to client sessions. Callers inject an HTTPDoer
// when they need to intercept transport behavior in tests.
package api
