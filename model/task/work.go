package task

import "context"

// Work describes what a task does. Run executes exactly once on a runner
// worker; the returned value becomes the task result, the error is captured
// on the task.
type Work struct {
	// Name is a short human readable task name, e.g. "Reset storage".
	Name string
	// Steps is the expected number of progress steps (0 when unknown).
	Steps int
	// Cancellable marks work that honours context cancellation.
	Cancellable bool
	// Run performs the work.
	Run func(ctx context.Context) (interface{}, error)
}
