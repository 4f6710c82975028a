package main

import (
	"log/slog"
	"strings"
	"sync"

	"morph/internal/api"
	"morph/internal/config"
	"morph/internal/history"
	"morph/internal/jobstore"
	"morph/internal/logging"
	"morph/internal/notifications"
	"morph/internal/submission"
	"morph/internal/workflow"
)

type commandContext struct {
	configFlag *string
	serverFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, serverFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.serverFlag != nil {
			if server := strings.TrimSpace(*c.serverFlag); server != "" {
				cfg.Server.BaseURL = strings.TrimRight(server, "/")
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) newAPIClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.New(cfg.Server.BaseURL, cfg.RequestTimeout())
}

// session bundles the lifecycle pieces one command invocation needs.
type session struct {
	cfg     *config.Config
	store   *jobstore.Store
	client  *api.Client
	manager *workflow.Manager
	archive *history.Store
}

// close releases the history archive handle if one was opened.
func (s *session) close() {
	if s.archive != nil {
		_ = s.archive.Close()
	}
}

// newSession assembles a workflow manager and its dependencies. The archive
// is best-effort: if it cannot be opened the session continues without it.
func (c *commandContext) newSession(opts ...workflow.ManagerOption) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.newAPIClient()
	if err != nil {
		return nil, err
	}

	logger := c.ensureLogger()
	store := jobstore.New()
	submitter := submission.New(store, client, cfg.Server.MaxBatchFiles, cfg.MaxFileBytes(), logger)
	notifier := notifications.NewService(cfg)

	var archive *history.Store
	if cfg.History.Enabled {
		archive, err = history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("history archive unavailable", logging.Error(err))
			archive = nil
		}
	}

	var managerArchive workflow.Archive
	if archive != nil {
		managerArchive = archive
	}
	manager := workflow.NewManager(cfg, store, client, submitter, notifier, managerArchive, logger, opts...)
	return &session{
		cfg:     cfg,
		store:   store,
		client:  client,
		manager: manager,
		archive: archive,
	}, nil
}
