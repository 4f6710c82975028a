package polling

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"morph/internal/jobs"
	"morph/internal/jobstore"
	"morph/internal/logging"
	"morph/internal/services"
)

const defaultInterval = 2 * time.Second

// StatusFetcher retrieves the server-side state of one job.
type StatusFetcher interface {
	GetJob(ctx context.Context, jobID string) (jobs.Job, error)
}

// Events receives loop outcomes. The lifecycle controller implements this to
// turn loop results into notifications; implementations must be safe for
// concurrent use since every loop goroutine calls them directly.
type Events interface {
	// JobFinished fires when a loop observes a terminal status. A job whose
	// terminal transition is discovered elsewhere (refresh) may cause a
	// second JobFinished for the same id; consumers deduplicate.
	JobFinished(job jobs.Job)
	// JobVanished fires once when the server answers 404 for a tracked id.
	JobVanished(jobID string, err error)
	// PollWarning fires for a failed fetch that keeps the schedule.
	PollWarning(jobID string, err error)
	// PollingExhausted fires when MaxAttempts is reached before a terminal
	// status; the record keeps its last known state.
	PollingExhausted(jobID string, attempts int)
}

// Config controls loop cadence.
type Config struct {
	// Interval between fetches. Defaults to 2s.
	Interval time.Duration
	// MaxAttempts bounds the number of fetches per job; 0 means unbounded.
	MaxAttempts int
	// BackoffMultiplier stretches the interval after every fetch; values at
	// or below 1.0 keep the interval fixed.
	BackoffMultiplier float64
	// MaxInterval caps the backoff-stretched interval; 0 means uncapped.
	MaxInterval time.Duration
}

func (c Config) interval() time.Duration {
	if c.Interval <= 0 {
		return defaultInterval
	}
	return c.Interval
}

// Poller owns the per-job polling loops.
type Poller struct {
	store   *jobstore.Store
	fetcher StatusFetcher
	events  Events
	cfg     Config
	logger  *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	tracked map[string]struct{}
	wg      sync.WaitGroup
}

// New constructs a poller. Start must be called before Track.
func New(store *jobstore.Store, fetcher StatusFetcher, events Events, cfg Config, logger *slog.Logger) *Poller {
	return &Poller{
		store:   store,
		fetcher: fetcher,
		events:  events,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "poller"),
		tracked: make(map[string]struct{}),
	}
}

// Start binds the poller's loops to ctx. Loops exit when ctx is canceled or
// Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
}

// Track begins polling the given job id. Tracking an id that already has a
// live loop is a no-op, so callers can hand every refreshed record to Track
// without bookkeeping.
func (p *Poller) Track(jobID string) {
	if jobID == "" {
		return
	}

	p.mu.Lock()
	if p.ctx == nil || p.ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	if _, live := p.tracked[jobID]; live {
		p.mu.Unlock()
		return
	}
	p.tracked[jobID] = struct{}{}
	ctx := p.ctx
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.untrack(jobID)
		p.loop(ctx, jobID)
	}()
}

// Tracking reports whether a live loop exists for the id.
func (p *Poller) Tracking(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, live := p.tracked[jobID]
	return live
}

// Stop cancels every loop and waits for them to drain.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Poller) untrack(jobID string) {
	p.mu.Lock()
	delete(p.tracked, jobID)
	p.mu.Unlock()
}

func (p *Poller) loop(ctx context.Context, jobID string) {
	logger := p.logger.With(logging.String(logging.FieldJobID, jobID))
	interval := p.cfg.interval()
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		current, ok := p.store.Get(jobID)
		if !ok {
			logger.Debug("job left the store, ending poll loop")
			return
		}
		if current.IsTerminal() {
			p.events.JobFinished(current)
			return
		}

		attempts++
		fetched, err := p.fetcher.GetJob(services.WithJobID(ctx, jobID), jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, services.ErrJobNotFound) {
				p.events.JobVanished(jobID, err)
				return
			}
			wrapped := services.Wrap(services.ErrJobQuery, "poller", "fetch status", jobID, err)
			logger.Warn("status fetch failed", logging.Error(wrapped))
			p.events.PollWarning(jobID, wrapped)
		} else {
			updated, err := p.store.Update(jobID, fetched)
			switch {
			case errors.Is(err, jobstore.ErrNotFound):
				return
			case errors.Is(err, jobstore.ErrTerminalState):
				p.events.JobFinished(updated)
				return
			case err != nil:
				logger.Warn("store update failed", logging.Error(err))
			default:
				logger.Debug("status merged", logging.String(logging.FieldStatus, string(updated.Status)))
				if updated.IsTerminal() {
					p.events.JobFinished(updated)
					return
				}
			}
		}

		if p.cfg.MaxAttempts > 0 && attempts >= p.cfg.MaxAttempts {
			logger.Warn("poll attempts exhausted", logging.Int("attempts", attempts))
			p.events.PollingExhausted(jobID, attempts)
			return
		}
		interval = p.nextInterval(interval)
	}
}

func (p *Poller) nextInterval(current time.Duration) time.Duration {
	if p.cfg.BackoffMultiplier <= 1.0 {
		return current
	}
	next := time.Duration(float64(current) * p.cfg.BackoffMultiplier)
	if p.cfg.MaxInterval > 0 && next > p.cfg.MaxInterval {
		return p.cfg.MaxInterval
	}
	return next
}
