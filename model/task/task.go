package task

import (
	"fmt"
	"time"

	"github.com/viant/diskor/internal/clock"
	"github.com/viant/diskor/progress"
)

// Task represents a single asynchronous unit of work
type Task struct {
	ID          string            `json:"id"`
	Sequence    uint64            `json:"sequence"`
	Name        string            `json:"name"`
	State       State             `json:"state"`
	Cancellable bool              `json:"cancellable"`
	Output      interface{}       `json:"output,omitempty"`
	Error       string            `json:"error,omitempty"`
	Err         error             `json:"-"`
	Progress    progress.Snapshot `json:"progress"`
	CreatedAt   time.Time         `json:"createdAt"`
	QueuedAt    *time.Time        `json:"queuedAt,omitempty"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// Ref identifies a task on the runner queue.
type Ref struct {
	ID string `json:"id"`
}

// New creates a pending task
func New(id string, sequence uint64, work *Work) *Task {
	ret := &Task{
		ID:        id,
		Sequence:  sequence,
		State:     StatePending,
		CreatedAt: clock.Now(),
	}
	if work != nil {
		ret.Name = work.Name
		ret.Cancellable = work.Cancellable
		ret.Progress = progress.Snapshot{Steps: work.Steps}
	}
	return ret
}

// Status returns the current task state
func (t *Task) Status() State {
	return t.State
}

// IsStarted returns true once the task was handed over to the runner.
func (t *Task) IsStarted() bool {
	return t.QueuedAt != nil || t.State != StatePending
}

// Result returns the task output. It fails with ErrNotReady before the task
// finished, with *FailedError when it failed and with ErrCancelled when it was
// cancelled.
func (t *Task) Result() (interface{}, error) {
	switch t.State {
	case StateSucceeded:
		return t.Output, nil
	case StateFailed:
		cause := t.Err
		if cause == nil && t.Error != "" {
			cause = fmt.Errorf("%s", t.Error)
		}
		return nil, &FailedError{TaskID: t.ID, Cause: cause}
	case StateCancelled:
		return nil, ErrCancelled
	default:
		return nil, ErrNotReady
	}
}

// Queue marks the task as handed over to the runner
func (t *Task) Queue() error {
	if t.IsStarted() {
		return fmt.Errorf("task %v already started (%v): %w", t.ID, t.State, ErrInvalidState)
	}
	t.QueuedAt = clock.NowPtr()
	return nil
}

// Start marks the task as running
func (t *Task) Start() error {
	if t.State != StatePending {
		return fmt.Errorf("task %v cannot run from %v: %w", t.ID, t.State, ErrInvalidState)
	}
	t.StartedAt = clock.NowPtr()
	t.State = StateRunning
	return nil
}

// Complete marks the task as succeeded
func (t *Task) Complete(output interface{}) error {
	if t.State != StateRunning {
		return fmt.Errorf("task %v cannot succeed from %v: %w", t.ID, t.State, ErrInvalidState)
	}
	t.CompletedAt = clock.NowPtr()
	t.Output = output
	t.State = StateSucceeded
	return nil
}

// Fail marks the task as failed
func (t *Task) Fail(err error) error {
	if t.State != StateRunning {
		return fmt.Errorf("task %v cannot fail from %v: %w", t.ID, t.State, ErrInvalidState)
	}
	t.CompletedAt = clock.NowPtr()
	t.Err = err
	if err != nil {
		t.Error = err.Error()
	}
	t.State = StateFailed
	return nil
}

// Cancel marks a pending or running task as cancelled
func (t *Task) Cancel() error {
	if t.State.IsTerminal() {
		return fmt.Errorf("task %v already %v: %w", t.ID, t.State, ErrInvalidState)
	}
	if !t.Cancellable {
		return fmt.Errorf("task %v: %w", t.ID, ErrNotCancellable)
	}
	t.CompletedAt = clock.NowPtr()
	t.State = StateCancelled
	return nil
}

// Clone creates a copy of the task so that the caller can mutate it without
// affecting the original instance. Output is shared.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	clone.QueuedAt = cloneTime(t.QueuedAt)
	clone.StartedAt = cloneTime(t.StartedAt)
	clone.CompletedAt = cloneTime(t.CompletedAt)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := *t
	return &ts
}
