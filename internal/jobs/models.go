package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion job as reported by the
// remote service.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status permits no further transitions.
// Unknown statuses are never terminal so a malformed server response cannot
// silently end a polling loop.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one conversion request tracked from submission to terminal outcome.
//
// JobID is assigned by the remote service and immutable once set.
// InputFilename and ConversionType are fixed at submission time; the
// remaining fields reflect the most recent server-side state.
type Job struct {
	JobID          string    `json:"job_id"`
	Status         Status    `json:"status"`
	InputFilename  string    `json:"input_filename,omitempty"`
	ConversionType string    `json:"conversion_type,omitempty"`
	DownloadURL    string    `json:"download_url,omitempty"`
	Message        string    `json:"message,omitempty"`
	ProcessingTime float64   `json:"processing_time,omitempty"`
	FileSize       int64     `json:"file_size,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// IsTerminal reports whether the job reached completed or failed.
func (j Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Merge applies the set fields of patch onto the job and leaves everything
// else untouched. Identity fields (JobID, InputFilename, ConversionType,
// CreatedAt) are only adopted when currently empty, never rewritten.
func (j *Job) Merge(patch Job) {
	if patch.Status != "" {
		j.Status = patch.Status
	}
	if patch.DownloadURL != "" {
		j.DownloadURL = patch.DownloadURL
	}
	if patch.Message != "" {
		j.Message = patch.Message
	}
	if patch.ProcessingTime > 0 {
		j.ProcessingTime = patch.ProcessingTime
	}
	if patch.FileSize > 0 {
		j.FileSize = patch.FileSize
	}
	if j.JobID == "" {
		j.JobID = patch.JobID
	}
	if j.InputFilename == "" {
		j.InputFilename = patch.InputFilename
	}
	if j.ConversionType == "" {
		j.ConversionType = patch.ConversionType
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = patch.CreatedAt
	}
}
