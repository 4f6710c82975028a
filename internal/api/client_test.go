package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"morph/internal/api"
	"morph/internal/jobs"
	"morph/internal/services"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func newClient(t *testing.T, serverURL string) *api.Client {
	t.Helper()
	client, err := api.New(serverURL, 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSubmitFileEncodesOptionsAndFile(t *testing.T) {
	var captured struct {
		path      string
		fields    map[string]string
		filename  string
		requestID string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.requestID = r.Header.Get("X-Request-ID")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		captured.fields = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			captured.fields[key] = values[0]
		}
		if files := r.MultipartForm.File["file"]; len(files) == 1 {
			captured.filename = files[0].Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jobs.Job{JobID: "job-1", Status: jobs.StatusPending})
	}))
	defer server.Close()

	width := 800
	grayscale := true
	opts := &jobs.ProcessingOptions{Width: &width, Grayscale: &grayscale}

	client := newClient(t, server.URL)
	record, err := client.SubmitFile(context.Background(), "image-process", writeTempFile(t, "cat.png", "png-bytes"), opts)
	if err != nil {
		t.Fatalf("submit file: %v", err)
	}

	if captured.path != "/image/process" {
		t.Fatalf("expected /image/process endpoint, got %s", captured.path)
	}
	if captured.filename != "cat.png" {
		t.Fatalf("expected file part cat.png, got %q", captured.filename)
	}
	if captured.fields["width"] != "800" || captured.fields["grayscale"] != "true" {
		t.Fatalf("unexpected option fields: %v", captured.fields)
	}
	if _, present := captured.fields["height"]; present {
		t.Fatalf("unset option leaked into form: %v", captured.fields)
	}
	if captured.requestID == "" {
		t.Fatal("missing X-Request-ID header")
	}
	if record.JobID != "job-1" || record.Status != jobs.StatusPending {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestSubmitFileRoutesConvertTypes(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jobs.Job{JobID: "job-2", Status: jobs.StatusPending})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	if _, err := client.SubmitFile(context.Background(), "pdf-to-docx", writeTempFile(t, "report.pdf", "pdf"), nil); err != nil {
		t.Fatalf("submit file: %v", err)
	}
	if gotPath != "/convert/pdf-to-docx" {
		t.Fatalf("expected /convert/pdf-to-docx, got %s", gotPath)
	}
}

func TestSubmitBatchSendsAllFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/convert/batch" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("conversion_type"); got != "video-to-audio" {
			t.Fatalf("missing conversion_type query param, got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.MultipartForm.Value["conversion_type"]; len(got) != 1 || got[0] != "video-to-audio" {
			t.Fatalf("missing conversion_type form field: %v", r.MultipartForm.Value)
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Fatalf("expected 2 file parts, got %d", len(files))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]jobs.Job{
			{JobID: "job-a", Status: jobs.StatusPending},
			{JobID: "job-b", Status: jobs.StatusPending},
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	records, err := client.SubmitBatch(context.Background(), "video-to-audio", []string{
		writeTempFile(t, "one.mp4", "a"),
		writeTempFile(t, "two.mp4", "b"),
	})
	if err != nil {
		t.Fatalf("submit batch: %v", err)
	}
	if len(records) != 2 || records[0].JobID != "job-a" || records[1].JobID != "job-b" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestGetJobMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Job not found"}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.GetJob(context.Background(), "missing")
	if !errors.Is(err, services.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestNotFoundMappingIsScopedToJobEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"File not found"}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.Download(context.Background(), "/download/gone.mp3", t.TempDir())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, services.ErrJobNotFound) {
		t.Fatalf("missing download file must not read as an unknown job: %v", err)
	}
	if !strings.Contains(err.Error(), "File not found") {
		t.Fatalf("expected detail in error, got %v", err)
	}
}

func TestGetJobFillsIdentityFromRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"processing"}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	record, err := client.GetJob(context.Background(), "job-9")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if record.JobID != "job-9" {
		t.Fatalf("expected job id backfill, got %+v", record)
	}
}

func TestErrorsCarryServerDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Unsupported conversion type: bogus"}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.SubmitFile(context.Background(), "bogus", writeTempFile(t, "x.bin", "x"), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "Unsupported conversion type: bogus"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected detail %q in error, got %v", want, err)
	}
}

func TestDeleteJob(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Job deleted successfully"}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	if err := client.DeleteJob(context.Background(), "job-3"); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/job/job-3" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
}

func TestDownloadResolvesRelativeURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/out.mp3" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("converted-bytes"))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	destDir := t.TempDir()
	path, err := client.Download(context.Background(), "/download/out.mp3", destDir)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(path) != "out.mp3" {
		t.Fatalf("unexpected destination: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "converted-bytes" {
		t.Fatalf("unexpected contents: %q", data)
	}
}

func TestListJobsDecodesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"job_id":"a","status":"completed","download_url":"/download/a.docx"},{"job_id":"b","status":"processing"}]`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	records, err := client.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Status != jobs.StatusCompleted || records[0].DownloadURL != "/download/a.docx" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
}

func TestHealthAndStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2026-01-02T03:04:05"}`))
		case "/stats":
			_, _ = w.Write([]byte(`{"total_jobs":12,"completed_jobs":9,"success_rate":75.0}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Status != "healthy" {
		t.Fatalf("unexpected health: %+v", health)
	}

	stats, err := client.ServiceStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalJobs != 12 || stats.CompletedJobs != 9 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
