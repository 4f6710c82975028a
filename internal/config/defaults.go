package config

const (
	defaultBaseURL             = "http://localhost:8000"
	defaultRequestTimeout      = 60
	defaultDownloadDir         = "~/Downloads"
	defaultMaxBatchFiles       = 10
	defaultMaxFileMiB          = 100
	defaultPollInterval        = 2
	defaultRefreshInterval     = 5
	defaultMaxPollInterval     = 30
	defaultBackoffMultiplier   = 1.0
	defaultNotifyTimeout       = 10
	defaultHistoryPath         = "~/.local/share/morph/history.db"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
			DownloadDir:    defaultDownloadDir,
			MaxBatchFiles:  defaultMaxBatchFiles,
			MaxFileMiB:     defaultMaxFileMiB,
		},
		Polling: Polling{
			Interval:          defaultPollInterval,
			RefreshInterval:   defaultRefreshInterval,
			MaxAttempts:       0,
			BackoffMultiplier: defaultBackoffMultiplier,
			MaxInterval:       defaultMaxPollInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Submission:     true,
			Completion:     true,
			Failure:        true,
			Deletion:       true,
			Errors:         true,
		},
		History: History{
			Enabled: false,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
