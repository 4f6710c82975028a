package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"morph/internal/config"
	"morph/internal/jobs"
	"morph/internal/jobstore"
	"morph/internal/logging"
	"morph/internal/notifications"
	"morph/internal/polling"
	"morph/internal/services"
	"morph/internal/submission"
)

// Client is the slice of the api client the manager needs.
type Client interface {
	GetJob(ctx context.Context, jobID string) (jobs.Job, error)
	ListJobs(ctx context.Context) ([]jobs.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	Download(ctx context.Context, downloadURL, destDir string) (string, error)
}

// Archive records terminal jobs. history.Store satisfies this; a nil archive
// disables recording.
type Archive interface {
	Record(ctx context.Context, job jobs.Job) error
}

// Manager coordinates submissions, polling, refreshes, and deletes against
// one shared job store.
type Manager struct {
	cfg       *config.Config
	store     *jobstore.Store
	client    Client
	submitter *submission.Service
	poller    *polling.Poller
	notifier  notifications.Service
	archive   Archive
	logger    *slog.Logger

	refreshInterval time.Duration

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	notified map[string]struct{}
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	pollConfig      *polling.Config
	refreshInterval *time.Duration
}

// WithPollingConfig overrides the poll cadence derived from config.
func WithPollingConfig(cfg polling.Config) ManagerOption {
	return func(o *managerOptions) {
		o.pollConfig = &cfg
	}
}

// WithRefreshInterval overrides the auto-refresh cadence derived from
// config; zero disables auto-refresh.
func WithRefreshInterval(interval time.Duration) ManagerOption {
	return func(o *managerOptions) {
		o.refreshInterval = &interval
	}
}

// NewManager wires a manager from its dependencies. The polling engine is
// created internally so loop events feed straight back into the manager.
func NewManager(cfg *config.Config, store *jobstore.Store, client Client, submitter *submission.Service, notifier notifications.Service, archive Archive, logger *slog.Logger, opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	m := &Manager{
		cfg:       cfg,
		store:     store,
		client:    client,
		submitter: submitter,
		notifier:  notifier,
		archive:   archive,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		notified:  make(map[string]struct{}),
	}

	pollCfg := polling.Config{
		Interval:          cfg.PollInterval(),
		MaxAttempts:       cfg.Polling.MaxAttempts,
		BackoffMultiplier: cfg.Polling.BackoffMultiplier,
		MaxInterval:       cfg.MaxPollInterval(),
	}
	if options.pollConfig != nil {
		pollCfg = *options.pollConfig
	}
	m.poller = polling.New(store, m.client, m, pollCfg, logger)

	m.refreshInterval = cfg.RefreshInterval()
	if options.refreshInterval != nil {
		m.refreshInterval = *options.refreshInterval
	}
	return m
}

// Start begins background polling and, when a refresh interval is
// configured, the auto-refresh loop. Safe to call once per manager.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	m.poller.Start(runCtx)
	for _, record := range m.store.List() {
		if !record.IsTerminal() {
			m.poller.Track(record.JobID)
		}
	}

	if m.refreshInterval > 0 {
		m.wg.Add(1)
		go m.refreshLoop(runCtx, m.refreshInterval)
	}

	m.logger.Info("workflow manager started",
		logging.Duration("poll_interval", m.cfg.PollInterval()),
		logging.Duration("refresh_interval", m.refreshInterval),
	)
	return nil
}

// Stop cancels background loops and waits for them to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.running = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.poller.Stop()
	m.wg.Wait()
}

// Run starts the manager and blocks until ctx is canceled.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	m.Stop()
	return nil
}

func (m *Manager) refreshLoop(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		if err := m.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			// Auto-refresh failures are routine (server restarts, blips);
			// the next tick retries, so log instead of notifying.
			m.logger.Warn("auto-refresh failed", logging.Error(err))
		}
	}
}

// Submit runs a submission and hands accepted records to the poller.
// Records that arrive already terminal get their terminal handling
// immediately instead of a poll loop.
func (m *Manager) Submit(ctx context.Context, req submission.Request) ([]jobs.Job, error) {
	accepted, err := m.submitter.Submit(ctx, req)
	if err != nil {
		m.notifyFailure(ctx, "submission", err)
		return nil, err
	}

	m.publishAccepted(ctx, req, accepted)
	for _, record := range accepted {
		if record.IsTerminal() {
			m.markTerminal(ctx, record)
			continue
		}
		m.poller.Track(record.JobID)
	}
	return accepted, nil
}

func (m *Manager) publishAccepted(ctx context.Context, req submission.Request, accepted []jobs.Job) {
	if len(accepted) == 0 {
		return
	}
	if len(accepted) == 1 {
		m.publish(ctx, notifications.EventSubmissionAccepted, notifications.Payload{
			"filename":       accepted[0].InputFilename,
			"conversionType": accepted[0].ConversionType,
			"jobID":          accepted[0].JobID,
		})
		return
	}
	m.publish(ctx, notifications.EventBatchAccepted, notifications.Payload{
		"count":          fmt.Sprintf("%d", len(accepted)),
		"conversionType": req.ConversionType,
	})
}

// DeleteJob removes a job remotely and then locally. Any server-side
// failure, a 404 included, keeps the local record so the user can retry or
// let the next refresh resolve the disagreement.
func (m *Manager) DeleteJob(ctx context.Context, jobID string) error {
	record, known := m.store.Get(jobID)
	if !known {
		return services.Wrap(services.ErrJobNotFound, "workflow", "delete job", jobID, nil)
	}

	if err := m.client.DeleteJob(ctx, jobID); err != nil {
		wrapped := services.Wrap(services.ErrDeleteFailed, "workflow", "delete job", jobID, err)
		m.notifyFailure(ctx, fmt.Sprintf("deleting job %s", jobID), wrapped)
		return wrapped
	}

	m.store.Remove(jobID)
	m.markNotified(jobID)
	m.publish(ctx, notifications.EventJobDeleted, notifications.Payload{
		"jobID":    jobID,
		"filename": record.InputFilename,
	})
	m.logger.Info("job deleted", logging.String(logging.FieldJobID, jobID))
	return nil
}

// Refresh replaces the store contents with the server's job list. On failure
// the store is left untouched. Terminal transitions discovered by the
// refresh get their terminal handling; jobs first seen already terminal are
// treated as history and stay silent.
func (m *Manager) Refresh(ctx context.Context) error {
	records, err := m.client.ListJobs(ctx)
	if err != nil {
		return services.Wrap(services.ErrRefreshFailed, "workflow", "list jobs", "", err)
	}

	prior := make(map[string]jobs.Status, m.store.Len())
	for _, record := range m.store.List() {
		prior[record.JobID] = record.Status
	}

	m.store.Replace(records)

	for _, record := range m.store.List() {
		if record.IsTerminal() {
			previous, seen := prior[record.JobID]
			if !seen || previous.IsTerminal() {
				m.markNotified(record.JobID)
				continue
			}
			m.markTerminal(ctx, record)
			continue
		}
		m.trackIfRunning(record.JobID)
	}
	return nil
}

// Download fetches the artifact of a completed job into destDir.
func (m *Manager) Download(ctx context.Context, jobID, destDir string) (string, error) {
	record, ok := m.store.Get(jobID)
	if !ok {
		return "", services.Wrap(services.ErrJobNotFound, "workflow", "download", jobID, nil)
	}
	if record.Status != jobs.StatusCompleted {
		return "", services.Wrap(services.ErrTransient, "workflow", "download",
			fmt.Sprintf("job %s is %s, not completed", jobID, record.Status), nil)
	}
	if record.DownloadURL == "" {
		return "", services.Wrap(services.ErrTransient, "workflow", "download",
			fmt.Sprintf("job %s has no download url", jobID), nil)
	}

	path, err := m.client.Download(ctx, record.DownloadURL, destDir)
	if err != nil {
		wrapped := services.Wrap(services.ErrTransient, "workflow", "download", jobID, err)
		m.notifyFailure(ctx, fmt.Sprintf("downloading job %s", jobID), wrapped)
		return "", wrapped
	}

	m.publish(ctx, notifications.EventDownloadCompleted, notifications.Payload{"path": path})
	return path, nil
}

// Track hands one non-terminal job to the polling engine.
func (m *Manager) Track(jobID string) {
	if record, ok := m.store.Get(jobID); ok && !record.IsTerminal() {
		m.poller.Track(jobID)
	}
}

// AwaitTerminal blocks until every listed job has left the store or reached
// a terminal status, or ctx is canceled.
func (m *Manager) AwaitTerminal(ctx context.Context, jobIDs []string) error {
	for {
		settled := true
		for _, id := range jobIDs {
			if record, ok := m.store.Get(id); ok && !record.IsTerminal() {
				settled = false
				break
			}
		}
		if settled {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Jobs returns the current store contents in insertion order.
func (m *Manager) Jobs() []jobs.Job {
	return m.store.List()
}

// Job looks up one record.
func (m *Manager) Job(jobID string) (jobs.Job, bool) {
	return m.store.Get(jobID)
}

func (m *Manager) trackIfRunning(jobID string) {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if running {
		m.poller.Track(jobID)
	}
}
