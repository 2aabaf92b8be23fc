package orchestrator

import (
	"time"

	"github.com/modelaudit/modelmeter/internal/types"
)

// Status is the lifecycle state of a rating task.
type Status string

const (
	StatusPending      Status = "pending"
	StatusRunning      Status = "running"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusDisqualified Status = "disqualified"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusDisqualified:
		return true
	}
	return false
}

// Task tracks one artifact's rating computation. All fields are owned by the
// orchestrator and mutated only under its lock; the done channel is closed
// exactly once, on the first terminal transition.
type Task struct {
	ArtifactID string
	Status     Status
	CreatedAt  time.Time

	done   chan struct{}
	result *types.NetScoreResult
	err    error
}

func newTask(artifactID string, now time.Time) *Task {
	return &Task{
		ArtifactID: artifactID,
		Status:     StatusPending,
		CreatedAt:  now,
		done:       make(chan struct{}),
	}
}

// Done returns the completion signal. It is closed when the task reaches a
// terminal status and is safe to wait on from any number of goroutines.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
