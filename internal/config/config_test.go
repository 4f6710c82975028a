package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"morph/internal/config"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults failed validation: %v", err)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("default poll interval = %v", cfg.PollInterval())
	}
	if cfg.RefreshInterval() != 5*time.Second {
		t.Fatalf("default refresh interval = %v", cfg.RefreshInterval())
	}
	if cfg.Polling.MaxAttempts != 0 {
		t.Fatal("default polling must be unbounded")
	}
	if cfg.MaxFileBytes() != 100<<20 {
		t.Fatalf("default max file bytes = %d", cfg.MaxFileBytes())
	}
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
base_url = "https://convert.example.com/"
request_timeout = 15

[polling]
interval = 1
refresh_interval = 0
max_attempts = 5
backoff_multiplier = 2.0
max_interval = 10

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Server.BaseURL != "https://convert.example.com" {
		t.Fatalf("base url not trimmed: %q", cfg.Server.BaseURL)
	}
	if cfg.RequestTimeout() != 15*time.Second {
		t.Fatalf("request timeout = %v", cfg.RequestTimeout())
	}
	if cfg.RefreshInterval() != 0 {
		t.Fatalf("refresh interval = %v, want disabled", cfg.RefreshInterval())
	}
	if cfg.Polling.MaxAttempts != 5 || cfg.Polling.BackoffMultiplier != 2.0 {
		t.Fatalf("polling overrides lost: %+v", cfg.Polling)
	}
	// Untouched section keeps defaults.
	if cfg.Server.MaxBatchFiles != 10 {
		t.Fatalf("max batch files = %d", cfg.Server.MaxBatchFiles)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.toml")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if cfg.Server.BaseURL == "" {
		t.Fatal("defaults not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		expect string
	}{
		{"bad scheme", func(c *config.Config) { c.Server.BaseURL = "ftp://example.com" }, "base_url"},
		{"backoff below one", func(c *config.Config) { c.Polling.BackoffMultiplier = 0.5 }, "backoff_multiplier"},
		{"max interval below interval", func(c *config.Config) { c.Polling.Interval = 10; c.Polling.MaxInterval = 5 }, "max_interval"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "yaml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.expect) {
				t.Fatalf("error %q does not mention %q", err, tc.expect)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample not detected")
	}
	defaults := config.Default()
	if cfg.Server.BaseURL != defaults.Server.BaseURL {
		t.Fatalf("sample base url %q differs from default %q", cfg.Server.BaseURL, defaults.Server.BaseURL)
	}
	if cfg.Polling.Interval != defaults.Polling.Interval {
		t.Fatalf("sample interval %d differs from default %d", cfg.Polling.Interval, defaults.Polling.Interval)
	}
}
