package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"morph/internal/config"
)

const userAgent = "Morph-Go/0.1.0"

// Event identifies a job lifecycle milestone worth telling the user about.
type Event string

const (
	EventSubmissionAccepted Event = "submission-accepted"
	EventBatchAccepted      Event = "batch-accepted"
	EventJobCompleted       Event = "job-completed"
	EventJobFailed          Event = "job-failed"
	EventJobDeleted         Event = "job-deleted"
	EventDownloadCompleted  Event = "download-completed"
	EventError              Event = "error"
	EventTest               Event = "test"
)

// Payload carries event-specific values used to render the message.
type Payload map[string]string

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  enabledEvents(cfg),
	}
}

func enabledEvents(cfg *config.Config) map[Event]bool {
	n := cfg.Notifications
	return map[Event]bool{
		EventSubmissionAccepted: n.Submission,
		EventBatchAccepted:      n.Submission,
		EventJobCompleted:       n.Completion,
		EventDownloadCompleted:  n.Completion,
		EventJobFailed:          n.Failure,
		EventJobDeleted:         n.Deletion,
		EventError:              n.Errors,
		EventTest:               true,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	data, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func render(event Event, payload Payload) (message, bool) {
	filename := strings.TrimSpace(payload["filename"])
	conversionType := strings.TrimSpace(payload["conversionType"])
	jobID := strings.TrimSpace(payload["jobID"])

	switch event {
	case EventSubmissionAccepted:
		body := fmt.Sprintf("Submitted %s for %s conversion", filename, conversionType)
		if jobID != "" {
			body = fmt.Sprintf("%s\nJob: %s", body, jobID)
		}
		return message{
			title: "Morph - Job Submitted",
			body:  body,
			tags:  []string{"morph", "submit", "accepted"},
		}, true
	case EventBatchAccepted:
		count := strings.TrimSpace(payload["count"])
		if count == "" {
			count = "?"
		}
		return message{
			title: "Morph - Batch Submitted",
			body:  fmt.Sprintf("Submitted %s files for %s conversion", count, conversionType),
			tags:  []string{"morph", "submit", "batch"},
		}, true
	case EventJobCompleted:
		body := fmt.Sprintf("Conversion complete: %s", filename)
		if elapsed := strings.TrimSpace(payload["processingTime"]); elapsed != "" {
			body = fmt.Sprintf("%s (%s)", body, elapsed)
		}
		return message{
			title:    "Morph - Complete",
			body:     body,
			tags:     []string{"morph", "job", "completed"},
			priority: "high",
		}, true
	case EventJobFailed:
		reason := strings.TrimSpace(payload["message"])
		if reason == "" {
			reason = "unknown error"
		}
		return message{
			title:    "Morph - Failed",
			body:     fmt.Sprintf("Conversion failed: %s\n%s", filename, reason),
			tags:     []string{"morph", "job", "failed"},
			priority: "high",
		}, true
	case EventJobDeleted:
		target := jobID
		if filename != "" {
			target = filename
		}
		return message{
			title: "Morph - Job Deleted",
			body:  fmt.Sprintf("Removed job: %s", target),
			tags:  []string{"morph", "job", "deleted"},
		}, true
	case EventDownloadCompleted:
		return message{
			title: "Morph - Downloaded",
			body:  fmt.Sprintf("Saved result: %s", strings.TrimSpace(payload["path"])),
			tags:  []string{"morph", "download", "completed"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := strings.TrimSpace(payload["context"]); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if reason := strings.TrimSpace(payload["error"]); reason != "" {
			builder.WriteString(reason)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Morph - Error",
			body:     builder.String(),
			tags:     []string{"morph", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Morph - Test",
			body:     "Notification system test",
			tags:     []string{"morph", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
