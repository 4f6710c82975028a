package workflow

import (
	"context"
	"errors"
	"fmt"

	"morph/internal/jobs"
	"morph/internal/logging"
	"morph/internal/notifications"
	"morph/internal/services"
)

// JobFinished implements polling.Events.
func (m *Manager) JobFinished(job jobs.Job) {
	m.markTerminal(context.Background(), job)
}

// JobVanished implements polling.Events. The server forgot the job, usually
// because another client deleted it; the local record keeps its last known
// state so the user can still see it.
func (m *Manager) JobVanished(jobID string, err error) {
	m.logger.Warn("job vanished from server",
		logging.String(logging.FieldJobID, jobID),
		logging.Error(err),
	)
	m.notifyFailure(context.Background(), fmt.Sprintf("polling job %s", jobID),
		services.Wrap(services.ErrJobNotFound, "workflow", "poll", jobID, err))
}

// PollWarning implements polling.Events. Transient fetch failures are loud
// enough in the logs; the loop retries on schedule, so no notification.
func (m *Manager) PollWarning(jobID string, err error) {
	m.logger.Warn("poll attempt failed",
		logging.String(logging.FieldJobID, jobID),
		logging.Error(err),
	)
}

// PollingExhausted implements polling.Events. Exhaustion is a warning, not a
// failure: the record keeps its last known state and a refresh can still
// pick the job up later.
func (m *Manager) PollingExhausted(jobID string, attempts int) {
	m.logger.Warn("gave up polling job",
		logging.String(logging.FieldJobID, jobID),
		logging.Int("attempts", attempts),
	)
}

// markTerminal performs the once-per-job terminal handling: archive the
// record and publish the completion or failure notification. Poll loops and
// refreshes can both observe the same transition; the notified set makes the
// second observation a no-op.
func (m *Manager) markTerminal(ctx context.Context, job jobs.Job) {
	if job.JobID == "" || !job.IsTerminal() {
		return
	}
	if !m.markNotified(job.JobID) {
		return
	}

	m.logger.Info("job reached terminal status",
		logging.String(logging.FieldJobID, job.JobID),
		logging.String(logging.FieldStatus, string(job.Status)),
	)

	if m.archive != nil {
		if err := m.archive.Record(ctx, job); err != nil {
			// Archive trouble must never disturb lifecycle handling.
			m.logger.Warn("history archive write failed",
				logging.String(logging.FieldJobID, job.JobID),
				logging.Error(err),
			)
		}
	}

	if job.Status == jobs.StatusCompleted {
		m.publish(ctx, notifications.EventJobCompleted, notifications.Payload{
			"filename":       job.InputFilename,
			"processingTime": formatSeconds(job.ProcessingTime),
		})
		return
	}
	m.publish(ctx, notifications.EventJobFailed, notifications.Payload{
		"filename": job.InputFilename,
		"message":  job.Message,
	})
}

// markNotified returns true the first time it is called for an id.
func (m *Manager) markNotified(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, done := m.notified[jobID]; done {
		return false
	}
	m.notified[jobID] = struct{}{}
	return true
}

func (m *Manager) notifyFailure(ctx context.Context, contextLabel string, failure error) {
	if m.notifier == nil || failure == nil {
		return
	}
	if services.FailureSeverity(failure) == services.SeverityWarning {
		return
	}
	if err := m.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
		"context": contextLabel,
		"error":   failure.Error(),
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("shutting down, could not send error notification")
			return
		}
		m.logger.Debug("error notification failed", logging.Error(err))
	}
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		m.logger.Debug("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1fs", seconds)
}
