package orchestrator

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/modelaudit/modelmeter/internal/errors"
)

// Sweep fails every pending or running task older than the reaper timeout
// and releases its waiters. Once terminal a task is never reaped again; a
// pipeline run that finishes after being reaped has its result discarded by
// complete. Sweep also runs opportunistically before each new request.
func (o *Orchestrator) Sweep(now time.Time) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sweepLocked(now)
}

// sweepLocked requires o.mu to be held.
func (o *Orchestrator) sweepLocked(now time.Time) int {
	reaped := 0
	for _, task := range o.tasks {
		if task.Status.Terminal() {
			continue
		}
		age := now.Sub(task.CreatedAt)
		if age <= o.opts.ReaperTimeout {
			continue
		}

		task.Status = StatusFailed
		task.err = apperrors.NewStuckTaskError(task.ArtifactID, age)
		close(task.done)
		reaped++

		if o.metrics != nil {
			o.metrics.IncrementReapedTask()
		}
		slog.Warn("Stuck rating task reaped",
			"artifact_id", task.ArtifactID,
			"age_seconds", age.Seconds(),
		)
	}
	return reaped
}

// StartReaper sweeps periodically until ctx is cancelled.
func (o *Orchestrator) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := o.Sweep(now); n > 0 {
					slog.Info("Reaper sweep finished", "reaped", n)
				}
			}
		}
	}()
}
