package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server describes the remote conversion service connection.
type Server struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	DownloadDir    string `toml:"download_dir"`
	MaxBatchFiles  int    `toml:"max_batch_files"`
	MaxFileMiB     int    `toml:"max_file_mib"`
}

// Polling controls the per-job status polling cadence and the session-wide
// auto-refresh interval. MaxAttempts of zero keeps the reference behavior of
// unbounded fixed-interval polling; BackoffMultiplier of 1.0 keeps the
// interval fixed.
type Polling struct {
	Interval          int     `toml:"interval"`
	RefreshInterval   int     `toml:"refresh_interval"`
	MaxAttempts       int     `toml:"max_attempts"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	MaxInterval       int     `toml:"max_interval"`
}

// Notifications contains configuration for ntfy push notifications and
// per-category toggles.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Submission     bool   `toml:"submission"`
	Completion     bool   `toml:"completion"`
	Failure        bool   `toml:"failure"`
	Deletion       bool   `toml:"deletion"`
	Errors         bool   `toml:"errors"`
}

// History contains configuration for the local terminal-job archive.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for morph.
//
// Sections by subsystem:
//   - Server: conversion service URL, timeouts, and local submission limits
//   - Polling: per-job poll interval, refresh interval, attempt caps
//   - Notifications: ntfy topic and per-event toggles
//   - History: local archive of jobs that reached a terminal state
//   - Logging: log format and level
type Config struct {
	Server        Server        `toml:"server"`
	Polling       Polling       `toml:"polling"`
	Notifications Notifications `toml:"notifications"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/morph/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("morph.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories morph writes to. The download
// directory is created on a best-effort basis so the CLI can run when the
// target volume is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	if c.History.Enabled {
		if dir := filepath.Dir(c.History.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create history directory %q: %w", dir, err)
			}
		}
	}
	if strings.TrimSpace(c.Server.DownloadDir) != "" {
		_ = os.MkdirAll(c.Server.DownloadDir, 0o755)
	}
	return nil
}

// RequestTimeout returns the HTTP request timeout for the conversion service.
func (c *Config) RequestTimeout() time.Duration {
	if c.Server.RequestTimeout <= 0 {
		return time.Duration(defaultRequestTimeout) * time.Second
	}
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// PollInterval returns the delay between status fetches for one job.
func (c *Config) PollInterval() time.Duration {
	if c.Polling.Interval <= 0 {
		return time.Duration(defaultPollInterval) * time.Second
	}
	return time.Duration(c.Polling.Interval) * time.Second
}

// RefreshInterval returns the session-wide auto-refresh cadence; zero
// disables auto-refresh.
func (c *Config) RefreshInterval() time.Duration {
	if c.Polling.RefreshInterval < 0 {
		return 0
	}
	return time.Duration(c.Polling.RefreshInterval) * time.Second
}

// MaxPollInterval caps backoff growth of the poll interval.
func (c *Config) MaxPollInterval() time.Duration {
	if c.Polling.MaxInterval <= 0 {
		return time.Duration(defaultMaxPollInterval) * time.Second
	}
	return time.Duration(c.Polling.MaxInterval) * time.Second
}

// MaxFileBytes returns the local per-file size limit for submissions.
func (c *Config) MaxFileBytes() int64 {
	if c.Server.MaxFileMiB <= 0 {
		return int64(defaultMaxFileMiB) << 20
	}
	return int64(c.Server.MaxFileMiB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
