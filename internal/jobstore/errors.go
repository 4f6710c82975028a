package jobstore

import "errors"

var (
	// ErrDuplicateJob is returned by Insert when the job_id is already present.
	ErrDuplicateJob = errors.New("duplicate job id")
	// ErrNotFound is returned by Update for an unknown job_id.
	ErrNotFound = errors.New("job not found in store")
	// ErrTerminalState is returned by Update when the stored record already
	// reached completed or failed.
	ErrTerminalState = errors.New("job is in a terminal state")
)
