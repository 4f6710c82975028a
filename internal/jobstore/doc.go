// Package jobstore holds the in-memory session store of conversion jobs.
//
// The store is the single source of truth for the current session: the
// submission service inserts, the polling engine updates, and the lifecycle
// controller removes or replaces wholesale. It performs no I/O and keeps no
// state beyond the process lifetime.
//
// List returns records in insertion order (oldest submission first). Update
// merges a patch into an existing record and refuses to mutate a record that
// already reached a terminal state, which is what lets concurrent poll loops
// and refreshes race without regressing completed or failed jobs.
package jobstore
