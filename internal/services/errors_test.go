package services_test

import (
	"errors"
	"testing"

	"morph/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrSubmissionFailed, "submission", "submit batch", "2 files", base)
	if !errors.Is(err, services.ErrSubmissionFailed) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("cause lost: %v", err)
	}
	want := "submission failed: submission: submit batch: 2 files: connection refused"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestFailureSeverity(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect services.Severity
	}{
		{"nil", nil, services.SeverityInfo},
		{"query failure", services.Wrap(services.ErrJobQuery, "polling", "fetch", "", errors.New("timeout")), services.SeverityWarning},
		{"not found terminates polling", services.Wrap(services.ErrJobQuery, "polling", "fetch", "", services.ErrJobNotFound), services.SeverityError},
		{"submission", services.Wrap(services.ErrSubmissionFailed, "submission", "submit", "", nil), services.SeverityError},
		{"delete", services.Wrap(services.ErrDeleteFailed, "lifecycle", "delete", "", nil), services.SeverityError},
		{"refresh", services.Wrap(services.ErrRefreshFailed, "lifecycle", "refresh", "", nil), services.SeverityError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.FailureSeverity(tc.err); got != tc.expect {
				t.Fatalf("severity = %q, want %q", got, tc.expect)
			}
		})
	}
}
