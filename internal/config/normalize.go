package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizePolling()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(c.Server.DownloadDir) == "" {
		c.Server.DownloadDir = defaultDownloadDir
	}
	expanded, err := expandPath(c.Server.DownloadDir)
	if err != nil {
		return fmt.Errorf("server.download_dir: %w", err)
	}
	c.Server.DownloadDir = expanded
	if c.Server.MaxBatchFiles <= 0 {
		c.Server.MaxBatchFiles = defaultMaxBatchFiles
	}
	if c.Server.MaxFileMiB <= 0 {
		c.Server.MaxFileMiB = defaultMaxFileMiB
	}
	return nil
}

func (c *Config) normalizePolling() {
	if c.Polling.Interval <= 0 {
		c.Polling.Interval = defaultPollInterval
	}
	if c.Polling.BackoffMultiplier <= 0 {
		c.Polling.BackoffMultiplier = defaultBackoffMultiplier
	}
	if c.Polling.MaxInterval <= 0 {
		c.Polling.MaxInterval = defaultMaxPollInterval
	}
	if c.Polling.MaxAttempts < 0 {
		c.Polling.MaxAttempts = 0
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	expanded, err := expandPath(c.History.Path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
