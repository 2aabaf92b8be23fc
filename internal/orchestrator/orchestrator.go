package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/modelaudit/modelmeter/internal/errors"
	"github.com/modelaudit/modelmeter/internal/monitoring"
	"github.com/modelaudit/modelmeter/internal/types"
)

// PipelineRunner is the metric pipeline surface the orchestrator drives.
type PipelineRunner interface {
	Compute(ctx context.Context, meta *types.ArtifactMetadata) (*types.NetScoreResult, error)
}

// RatingStore persists completed ratings so later lineage lookups can
// resolve this artifact as a parent. Optional.
type RatingStore interface {
	UpsertRating(name, version string, result *types.NetScoreResult) error
}

// Options tune the orchestrator.
type Options struct {
	// DisqualifyThreshold marks tasks with a lower net score disqualified.
	// Zero is honored as-is: no score is ever below it, so disqualification
	// is effectively disabled.
	DisqualifyThreshold float64
	WaitTimeout         time.Duration // how long a joining caller waits before computing itself
	ReaperTimeout       time.Duration // age after which a non-terminal task is failed
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		DisqualifyThreshold: 0.5,
		WaitTimeout:         30 * time.Second,
		ReaperTimeout:       600 * time.Second,
	}
}

// Orchestrator coordinates rating computations per artifact id. The first
// caller for an id owns the pipeline run; concurrent callers wait on the
// task's completion signal and share the owner's result. Terminal tasks are
// retained, so repeat requests are served from the task map without
// recomputation.
type Orchestrator struct {
	mu    sync.Mutex
	tasks map[string]*Task

	pipeline PipelineRunner
	store    RatingStore
	opts     Options
	metrics  *monitoring.Metrics
}

// New creates an orchestrator. store and metrics may be nil. Zero timeouts
// fall back to the documented defaults; the disqualify threshold is taken
// as given so an explicit zero disables disqualification.
func New(pipeline PipelineRunner, store RatingStore, opts Options, metrics *monitoring.Metrics) *Orchestrator {
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = 30 * time.Second
	}
	if opts.ReaperTimeout == 0 {
		opts.ReaperTimeout = 600 * time.Second
	}

	return &Orchestrator{
		tasks:    make(map[string]*Task),
		pipeline: pipeline,
		store:    store,
		opts:     opts,
		metrics:  metrics,
	}
}

// RequestRating returns the rating for an artifact, computing it at most
// once per task lifetime. Concurrent callers for the same id share one
// pipeline run. A caller whose wait times out falls back to computing the
// pipeline itself rather than re-waiting; that run is not recorded on the
// task, so the owner's result remains authoritative.
func (o *Orchestrator) RequestRating(ctx context.Context, artifactID string, meta *types.ArtifactMetadata) (*types.NetScoreResult, error) {
	o.mu.Lock()
	o.sweepLocked(time.Now())

	task, exists := o.tasks[artifactID]
	if exists && task.Status.Terminal() {
		result, err := task.result, task.err
		o.mu.Unlock()
		return result, err
	}

	if !exists {
		task = newTask(artifactID, time.Now())
		o.tasks[artifactID] = task
		task.Status = StatusRunning
		o.mu.Unlock()

		result, err := o.pipeline.Compute(ctx, meta)
		o.complete(task, result, err)

		o.mu.Lock()
		result, err = task.result, task.err
		o.mu.Unlock()
		return result, err
	}

	// Someone else owns the run; wait for its completion signal.
	if o.metrics != nil {
		o.metrics.IncrementSingleFlightJoin()
	}
	o.mu.Unlock()

	select {
	case <-task.Done():
		o.mu.Lock()
		result, err := task.result, task.err
		o.mu.Unlock()
		return result, err

	case <-ctx.Done():
		return nil, ctx.Err()

	case <-time.After(o.opts.WaitTimeout):
		// The owner run is overdue. Compute synchronously for this caller
		// instead of re-waiting. This can double-compute an artifact under
		// load; the duplicate result is returned to this caller only and
		// never written onto the owned task.
		if o.metrics != nil {
			o.metrics.IncrementDuplicateFallback()
		}
		slog.Warn("Rating wait timed out, computing synchronously",
			"artifact_id", artifactID,
			"wait_timeout", o.opts.WaitTimeout,
		)
		result, err := o.pipeline.Compute(ctx, meta)
		if err != nil {
			return nil, apperrors.NewPipelineFailure("rating pipeline failed", err)
		}
		return result, nil
	}
}

// complete performs the single terminal transition for an owned run. A task
// already terminal (reaped while we computed) is left untouched and the late
// result discarded.
func (o *Orchestrator) complete(task *Task, result *types.NetScoreResult, err error) {
	o.mu.Lock()
	if task.Status.Terminal() {
		o.mu.Unlock()
		slog.Info("Discarding late pipeline result for terminal task",
			"artifact_id", task.ArtifactID,
			"status", task.Status,
		)
		return
	}

	if err != nil {
		task.Status = StatusFailed
		task.err = apperrors.NewPipelineFailure("rating pipeline failed", err)
	} else if result.NetScore < o.opts.DisqualifyThreshold {
		task.Status = StatusDisqualified
		task.result = result
	} else {
		task.Status = StatusCompleted
		task.result = result
	}
	close(task.done)
	status := task.Status
	o.mu.Unlock()

	slog.Info("Rating task finished",
		"artifact_id", task.ArtifactID,
		"status", status,
	)

	if err == nil && o.store != nil {
		if storeErr := o.store.UpsertRating(task.ArtifactID, "1.0.0", result); storeErr != nil {
			slog.Warn("Failed to persist rating", "artifact_id", task.ArtifactID, "error", storeErr)
		}
	}
}

// TaskStatus returns the current status of an artifact's task, if tracked.
func (o *Orchestrator) TaskStatus(artifactID string) (Status, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	task, ok := o.tasks[artifactID]
	if !ok {
		return "", false
	}
	return task.Status, true
}

// TaskCount returns the number of tracked tasks.
func (o *Orchestrator) TaskCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tasks)
}
