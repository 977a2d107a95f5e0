package runner

import (
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	// ErrNotFound is returned for unknown or foreign task handles.
	ErrNotFound = fmt.Errorf("runner: task not found: %w", errdefs.ErrNotFound)

	// ErrInvalidWork is returned when a task is created without a function.
	ErrInvalidWork = fmt.Errorf("runner: invalid work: %w", errdefs.ErrInvalidArgument)

	// ErrPanic wraps a recovered panic raised by task work.
	ErrPanic = fmt.Errorf("runner: task panicked: %w", errdefs.ErrInternal)
)
