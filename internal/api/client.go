package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"morph/internal/jobs"
	"morph/internal/services"
)

const (
	userAgent         = "morph/0.1.0"
	headerRequestID   = "X-Request-ID"
	defaultTimeout    = 60 * time.Second
	maxErrorBodyBytes = 4096
	listJobsLimit     = 100
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a single conversion service instance.
type Client struct {
	baseURL string
	http    HTTPDoer
}

// Option customizes a client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// New constructs a client for the conversion service at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api client: empty base url")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api client: parse base url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL reports the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpointForType maps a conversion type to its submission path. The image
// processing pipeline lives on a dedicated endpoint; everything else posts
// to /convert/{type} and lets the server reject unknown types.
func endpointForType(conversionType string) string {
	if conversionType == "image-process" {
		return "/image/process"
	}
	return "/convert/" + conversionType
}

// SubmitFile uploads one file for conversion and returns the accepted job
// record. Options are encoded as set-only multipart form fields.
func (c *Client) SubmitFile(ctx context.Context, conversionType, path string, opts *jobs.ProcessingOptions) (jobs.Job, error) {
	conversionType = strings.TrimSpace(conversionType)
	if conversionType == "" {
		return jobs.Job{}, fmt.Errorf("api client: empty conversion type")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if opts != nil {
		for _, field := range opts.FormFields() {
			if err := writer.WriteField(field.Key, field.Value); err != nil {
				return jobs.Job{}, fmt.Errorf("api client: write %s field: %w", field.Key, err)
			}
		}
	}
	if err := attachFile(writer, path); err != nil {
		return jobs.Job{}, err
	}
	if err := writer.Close(); err != nil {
		return jobs.Job{}, fmt.Errorf("api client: close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpointForType(conversionType), body)
	if err != nil {
		return jobs.Job{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var record jobs.Job
	if err := c.do(req, &record); err != nil {
		return jobs.Job{}, err
	}
	return record, nil
}

// SubmitBatch uploads all files in one request. The server answers with one
// accepted record per file in submission order.
func (c *Client) SubmitBatch(ctx context.Context, conversionType string, paths []string) ([]jobs.Job, error) {
	conversionType = strings.TrimSpace(conversionType)
	if conversionType == "" {
		return nil, fmt.Errorf("api client: empty conversion type")
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("api client: empty batch")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("conversion_type", conversionType); err != nil {
		return nil, fmt.Errorf("api client: write conversion_type field: %w", err)
	}
	for _, path := range paths {
		if err := attachNamedFile(writer, "files", path); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("api client: close multipart writer: %w", err)
	}

	endpoint := "/convert/batch?conversion_type=" + url.QueryEscape(conversionType)
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var records []jobs.Job
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetJob fetches the current server-side state of one job. A 404 maps to
// services.ErrJobNotFound so callers can tell a vanished job from a
// transient failure.
func (c *Client) GetJob(ctx context.Context, jobID string) (jobs.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return jobs.Job{}, fmt.Errorf("api client: empty job id")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/job/"+url.PathEscape(jobID), nil)
	if err != nil {
		return jobs.Job{}, err
	}

	var record jobs.Job
	if err := c.do(req, &record); err != nil {
		return jobs.Job{}, err
	}
	if record.JobID == "" {
		record.JobID = jobID
	}
	return record, nil
}

// ListJobs fetches the server's view of all known jobs.
func (c *Client) ListJobs(ctx context.Context) ([]jobs.Job, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/jobs?limit=%d", listJobsLimit), nil)
	if err != nil {
		return nil, err
	}

	var records []jobs.Job
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteJob removes a job and its artifacts on the server.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return fmt.Errorf("api client: empty job id")
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/job/"+url.PathEscape(jobID), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Download retrieves a conversion artifact into destDir and returns the
// written path. downloadURL may be relative, in which case it resolves
// against the client's base URL.
func (c *Client) Download(ctx context.Context, downloadURL, destDir string) (string, error) {
	downloadURL = strings.TrimSpace(downloadURL)
	if downloadURL == "" {
		return "", fmt.Errorf("api client: empty download url")
	}

	resolved := downloadURL
	if strings.HasPrefix(downloadURL, "/") {
		resolved = c.baseURL + downloadURL
	}
	parsed, err := url.Parse(resolved)
	if err != nil {
		return "", fmt.Errorf("api client: parse download url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", fmt.Errorf("api client: build download request: %w", err)
	}
	c.decorate(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("api client: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.errorFromResponse(resp)
	}

	filename := filepath.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		return "", fmt.Errorf("api client: download url has no filename: %s", downloadURL)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("api client: create download dir: %w", err)
	}

	destPath := filepath.Join(destDir, filename)
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("api client: create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("api client: write %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("api client: close %s: %w", destPath, err)
	}
	return destPath, nil
}

// HealthStatus mirrors the service health endpoint payload.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return HealthStatus{}, err
	}

	var status HealthStatus
	if err := c.do(req, &status); err != nil {
		return HealthStatus{}, err
	}
	return status, nil
}

// Stats mirrors the service-side conversion statistics payload.
type Stats struct {
	TotalJobs     int     `json:"total_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	SuccessRate   float64 `json:"success_rate"`
}

// ServiceStats fetches aggregate conversion statistics from the server.
func (c *Client) ServiceStats(ctx context.Context) (Stats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/stats", nil)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	if err := c.do(req, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("api client: build request: %w", err)
	}
	c.decorate(ctx, req)
	return req, nil
}

func (c *Client) decorate(ctx context.Context, req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	correlationID, ok := services.CorrelationIDFromContext(ctx)
	if !ok {
		correlationID = uuid.NewString()
	}
	req.Header.Set(headerRequestID, correlationID)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api client: read response: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("api client: decode response: %w", err)
	}
	return nil
}

// errorFromResponse converts a non-2xx response into an error carrying the
// server's detail message when one is present. 404s on job endpoints map to
// services.ErrJobNotFound.
func (c *Client) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	detail := strings.TrimSpace(string(body))
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Detail) != "" {
		detail = strings.TrimSpace(parsed.Detail)
	}

	if resp.StatusCode == http.StatusNotFound && isJobEndpoint(resp.Request) {
		if detail != "" {
			return fmt.Errorf("%w: %s", services.ErrJobNotFound, detail)
		}
		return services.ErrJobNotFound
	}
	if detail != "" {
		return fmt.Errorf("api client: service returned %d: %s", resp.StatusCode, detail)
	}
	return fmt.Errorf("api client: service returned %d", resp.StatusCode)
}

// isJobEndpoint reports whether the request targeted /job/{id}, the only
// place a 404 means "unknown job" rather than a missing file or route.
func isJobEndpoint(req *http.Request) bool {
	return req != nil && req.URL != nil && strings.HasPrefix(req.URL.Path, "/job/")
}

func attachFile(writer *multipart.Writer, path string) error {
	return attachNamedFile(writer, "file", path)
}

func attachNamedFile(writer *multipart.Writer, fieldName, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("api client: empty file path")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("api client: open %s: %w", path, err)
	}
	defer file.Close()

	field, err := writer.CreateFormFile(fieldName, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("api client: create %s field: %w", fieldName, err)
	}
	if _, err := io.Copy(field, file); err != nil {
		return fmt.Errorf("api client: copy %s: %w", path, err)
	}
	return nil
}
