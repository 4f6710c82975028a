package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"morph/internal/jobs"
)

// ConversionServer is an in-memory conversion service for tests. Submitted
// jobs stay pending until the test script completes or fails them.
type ConversionServer struct {
	mu       sync.Mutex
	server   *httptest.Server
	records  map[string]*jobs.Job
	order    []string
	nextID   int
	contents map[string][]byte
}

// NewConversionServer starts the fake service. Callers own Close.
func NewConversionServer() *ConversionServer {
	s := &ConversionServer{
		records:  make(map[string]*jobs.Job),
		contents: make(map[string][]byte),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/convert/batch", s.handleBatch)
	mux.HandleFunc("/convert/", s.handleConvert)
	mux.HandleFunc("/image/process", s.handleConvert)
	mux.HandleFunc("/job/", s.handleJob)
	mux.HandleFunc("/jobs", s.handleJobs)
	mux.HandleFunc("/download/", s.handleDownload)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the service base URL.
func (s *ConversionServer) URL() string { return s.server.URL }

// Close shuts the fake service down.
func (s *ConversionServer) Close() { s.server.Close() }

// CompleteJob moves a job to completed and stages its artifact.
func (s *ConversionServer) CompleteJob(jobID, filename string, artifact []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[jobID]; ok {
		record.Status = jobs.StatusCompleted
		record.DownloadURL = "/download/" + filename
		record.ProcessingTime = 0.5
		record.FileSize = int64(len(artifact))
		s.contents[filename] = artifact
	}
}

// FailJob moves a job to failed with the given message.
func (s *ConversionServer) FailJob(jobID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[jobID]; ok {
		record.Status = jobs.StatusFailed
		record.Message = message
	}
}

// JobIDs returns submitted job ids in submission order.
func (s *ConversionServer) JobIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *ConversionServer) accept(conversionType, filename string) jobs.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("job-%d", s.nextID)
	record := &jobs.Job{
		JobID:          id,
		Status:         jobs.StatusPending,
		InputFilename:  filename,
		ConversionType: conversionType,
	}
	s.records[id] = record
	s.order = append(s.order, id)
	return *record
}

func (s *ConversionServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) != 1 {
		writeDetail(w, http.StatusBadRequest, "Exactly one file required")
		return
	}

	conversionType := strings.TrimPrefix(r.URL.Path, "/convert/")
	if r.URL.Path == "/image/process" {
		conversionType = "image-process"
	}
	writeJSON(w, http.StatusOK, s.accept(conversionType, files[0].Filename))
}

func (s *ConversionServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}
	conversionType := r.URL.Query().Get("conversion_type")
	if conversionType == "" {
		writeDetail(w, http.StatusBadRequest, "Missing conversion_type")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeDetail(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > 10 {
		writeDetail(w, http.StatusBadRequest, "Maximum 10 files per batch")
		return
	}

	accepted := make([]jobs.Job, 0, len(files))
	for _, file := range files {
		accepted = append(accepted, s.accept(conversionType, file.Filename))
	}
	writeJSON(w, http.StatusOK, accepted)
}

func (s *ConversionServer) handleJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/job/")

	s.mu.Lock()
	record, ok := s.records[jobID]
	var copied jobs.Job
	if ok {
		copied = *record
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, copied)
	case http.MethodDelete:
		s.mu.Lock()
		delete(s.records, jobID)
		for i, id := range s.order {
			if id == jobID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "Job deleted successfully"})
	default:
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *ConversionServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]jobs.Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *ConversionServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/download/")

	s.mu.Lock()
	data, ok := s.contents[filename]
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (s *ConversionServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": "2026-01-01T00:00:00",
	})
}

func (s *ConversionServer) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	total := len(s.records)
	completed := 0
	for _, record := range s.records {
		if record.Status == jobs.StatusCompleted {
			completed++
		}
	}
	s.mu.Unlock()

	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_jobs":     total,
		"completed_jobs": completed,
		"success_rate":   rate,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
