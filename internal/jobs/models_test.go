package jobs_test

import (
	"testing"
	"time"

	"morph/internal/jobs"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input  string
		expect jobs.Status
		ok     bool
	}{
		{"pending", jobs.StatusPending, true},
		{"Processing", jobs.StatusProcessing, true},
		{"  COMPLETED  ", jobs.StatusCompleted, true},
		{"failed", jobs.StatusFailed, true},
		{"", "", false},
		{"cancelled", "", false},
	}
	for _, tc := range tests {
		got, ok := jobs.ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.expect {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.input, got, tc.expect)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if jobs.StatusPending.IsTerminal() || jobs.StatusProcessing.IsTerminal() {
		t.Fatal("pending/processing must not be terminal")
	}
	if !jobs.StatusCompleted.IsTerminal() || !jobs.StatusFailed.IsTerminal() {
		t.Fatal("completed/failed must be terminal")
	}
	if jobs.Status("unknown").IsTerminal() {
		t.Fatal("unknown status must not be terminal")
	}
}

func TestMergeLeavesUnsetFieldsUntouched(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	job := jobs.Job{
		JobID:          "j-1",
		Status:         jobs.StatusProcessing,
		InputFilename:  "report.pdf",
		ConversionType: "pdf-to-docx",
		CreatedAt:      created,
	}

	job.Merge(jobs.Job{JobID: "j-1", Status: jobs.StatusCompleted, DownloadURL: "/files/report.docx", ProcessingTime: 3.5, FileSize: 2048})

	if job.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want completed", job.Status)
	}
	if job.DownloadURL != "/files/report.docx" {
		t.Fatalf("download url = %q", job.DownloadURL)
	}
	if job.InputFilename != "report.pdf" || job.ConversionType != "pdf-to-docx" {
		t.Fatal("identity fields must survive a merge")
	}
	if !job.CreatedAt.Equal(created) {
		t.Fatalf("created at rewritten to %v", job.CreatedAt)
	}
	if job.ProcessingTime != 3.5 || job.FileSize != 2048 {
		t.Fatal("metrics not merged")
	}
}

func TestMergeDoesNotRewriteIdentity(t *testing.T) {
	job := jobs.Job{JobID: "j-1", Status: jobs.StatusPending, InputFilename: "a.png"}
	job.Merge(jobs.Job{JobID: "j-2", InputFilename: "b.png", Status: jobs.StatusProcessing})
	if job.JobID != "j-1" {
		t.Fatalf("job id rewritten to %q", job.JobID)
	}
	if job.InputFilename != "a.png" {
		t.Fatalf("input filename rewritten to %q", job.InputFilename)
	}
}

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
func boolPtr(v bool) *bool          { return &v }
func stringPtr(v string) *string    { return &v }

func TestProcessingOptionsFormFields(t *testing.T) {
	opts := &jobs.ProcessingOptions{
		Width:     intPtr(800),
		Quality:   intPtr(85),
		Blur:      floatPtr(0.5),
		Grayscale: boolPtr(true),
		Sharpen:   boolPtr(false),
		Bitrate:   stringPtr("192k"),
	}

	fields := opts.FormFields()
	got := make(map[string]string, len(fields))
	for _, f := range fields {
		got[f.Key] = f.Value
	}

	want := map[string]string{
		"width":     "800",
		"quality":   "85",
		"blur":      "0.5",
		"grayscale": "true",
		"sharpen":   "false",
		"bitrate":   "192k",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d: %v", len(got), len(want), got)
	}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("field %q = %q, want %q", key, got[key], value)
		}
	}
	if _, present := got["height"]; present {
		t.Fatal("unset field must be omitted")
	}
}

func TestProcessingOptionsNilAndEmpty(t *testing.T) {
	var opts *jobs.ProcessingOptions
	if fields := opts.FormFields(); fields != nil {
		t.Fatalf("nil options produced fields: %v", fields)
	}
	if !opts.IsZero() {
		t.Fatal("nil options must be zero")
	}
	empty := &jobs.ProcessingOptions{Bitrate: stringPtr("")}
	if !empty.IsZero() {
		t.Fatal("empty-string option must be treated as unset")
	}
}
