package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFilesSelected is a local precondition failure; it never reaches
	// the network.
	ErrNoFilesSelected = errors.New("no files selected")
	// ErrSubmissionFailed marks a transport or server rejection during
	// submit; the whole submission is aborted with no partial state.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrJobQuery marks a failed poll fetch; the record keeps its last known
	// state and polling continues on schedule.
	ErrJobQuery = errors.New("job query failed")
	// ErrJobNotFound marks a poll fetch rejected because the server no
	// longer knows the id; it terminates that job's polling loop.
	ErrJobNotFound = errors.New("job not found")
	// ErrDeleteFailed marks a rejected remote delete; the record is retained
	// and the delete is not retried automatically.
	ErrDeleteFailed = errors.New("delete failed")
	// ErrRefreshFailed marks a failed wholesale resync; prior store contents
	// are left untouched.
	ErrRefreshFailed = errors.New("refresh failed")
	// ErrTransient marks failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
)

// Severity is the user-facing weight of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureSeverity maps a classified error to the severity of the
// notification the lifecycle controller should raise. Poll-fetch failures
// are warnings because the polling loop keeps going; everything else that
// reaches the notification boundary is an error.
func FailureSeverity(err error) Severity {
	switch {
	case err == nil:
		return SeverityInfo
	case errors.Is(err, ErrJobQuery) && !errors.Is(err, ErrJobNotFound):
		return SeverityWarning
	default:
		return SeverityError
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
