package jobstore

import (
	"fmt"
	"sync"

	"morph/internal/jobs"
)

// Store maps job_id to the authoritative Job record for the session.
// All methods are safe for concurrent use; each returns copies so callers
// can never mutate stored state without going through Update.
type Store struct {
	mu      sync.Mutex
	records map[string]*jobs.Job
	order   []string
}

// New returns an empty store.
func New() *Store {
	return &Store{records: make(map[string]*jobs.Job)}
}

// Insert adds a new record. The job must carry a non-empty JobID unique
// within the store.
func (s *Store) Insert(job jobs.Job) error {
	if job.JobID == "" {
		return fmt.Errorf("insert job: empty job id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[job.JobID]; exists {
		return fmt.Errorf("insert job %s: %w", job.JobID, ErrDuplicateJob)
	}
	stored := job
	s.records[job.JobID] = &stored
	s.order = append(s.order, job.JobID)
	return nil
}

// Update merges the set fields of patch into an existing record and returns
// the updated copy. It fails with ErrNotFound for unknown ids and with
// ErrTerminalState when the stored record is already completed or failed,
// so late poll results can never regress a terminal job.
func (s *Store) Update(jobID string, patch jobs.Job) (jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[jobID]
	if !ok {
		return jobs.Job{}, fmt.Errorf("update job %s: %w", jobID, ErrNotFound)
	}
	if record.IsTerminal() {
		return *record, fmt.Errorf("update job %s: %w", jobID, ErrTerminalState)
	}
	record.Merge(patch)
	return *record, nil
}

// Get returns a copy of the record for jobID.
func (s *Store) Get(jobID string) (jobs.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[jobID]
	if !ok {
		return jobs.Job{}, false
	}
	return *record, true
}

// Remove deletes a record. Removing an absent id is not an error; surfacing
// remote delete failures is the lifecycle controller's responsibility.
func (s *Store) Remove(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[jobID]; !ok {
		return
	}
	delete(s.records, jobID)
	for i, id := range s.order {
		if id == jobID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Replace swaps the entire store contents for the provided records, keeping
// their given order. Records without a job_id are skipped; a duplicated id
// keeps the first occurrence. Used by the full-resync refresh path.
func (s *Store) Replace(records []jobs.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*jobs.Job, len(records))
	s.order = s.order[:0]
	for _, job := range records {
		if job.JobID == "" {
			continue
		}
		if _, exists := s.records[job.JobID]; exists {
			continue
		}
		stored := job
		s.records[job.JobID] = &stored
		s.order = append(s.order, job.JobID)
	}
}

// List returns copies of all records in insertion order.
func (s *Store) List() []jobs.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]jobs.Job, 0, len(s.order))
	for _, id := range s.order {
		if record, ok := s.records[id]; ok {
			out = append(out, *record)
		}
	}
	return out
}

// Len returns the number of records currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
