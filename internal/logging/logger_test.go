package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"morph/internal/logging"
	"morph/internal/services"
)

func TestConsoleFormatPlacesComponentBeforeMessage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logging.NewComponentLogger(logger, "poller").Info("job finished",
		logging.String(logging.FieldJobID, "j-1"),
		logging.String(logging.FieldStatus, "completed"),
	)

	line := buf.String()
	if !strings.Contains(line, " INFO poller: job finished") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "job_id=j-1") || !strings.Contains(line, "status=completed") {
		t.Fatalf("attrs missing: %q", line)
	}
}

func TestJSONFormatUsesLowercaseLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept", logging.Int("attempts", 3))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v (%q)", err, buf.String())
	}
	if record["level"] != "warn" || record["msg"] != "kept" {
		t.Fatalf("unexpected record: %v", record)
	}
	if record["attempts"] != float64(3) {
		t.Fatalf("attrs missing: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "logfmt"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsJobID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	ctx := services.WithJobID(context.Background(), "j-42")
	logging.WithContext(ctx, logger).Info("polling")
	if !strings.Contains(buf.String(), "job_id=j-42") {
		t.Fatalf("job id not propagated: %q", buf.String())
	}
}
