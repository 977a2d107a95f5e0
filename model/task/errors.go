package task

import (
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	// ErrNotReady is returned when a result is requested before the task
	// reached a terminal state.
	ErrNotReady = fmt.Errorf("task: result not ready: %w", errdefs.ErrFailedPrecondition)

	// ErrNotCancellable is returned when the underlying work cannot be
	// interrupted.
	ErrNotCancellable = fmt.Errorf("task: not cancellable: %w", errdefs.ErrNotImplemented)

	// ErrInvalidState is returned for lifecycle transitions that are not
	// allowed, e.g. starting a task twice.
	ErrInvalidState = fmt.Errorf("task: invalid state: %w", errdefs.ErrConflict)

	// ErrCancelled is returned by Result for a cancelled task.
	ErrCancelled = fmt.Errorf("task: cancelled: %w", errdefs.ErrAborted)
)

// FailedError wraps the error returned by the work of a failed task.
type FailedError struct {
	TaskID string
	Cause  error
}

func (e *FailedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("task %v failed", e.TaskID)
	}
	return fmt.Sprintf("task %v failed: %v", e.TaskID, e.Cause)
}

// Unwrap returns the cause so that errors.Is/As see through the wrapper.
func (e *FailedError) Unwrap() error {
	return e.Cause
}
