package storage

import (
	"fmt"

	"github.com/containerd/errdefs"
	"github.com/viant/diskor/service/partitioning"
)

var (
	// ErrNotFound is returned for unknown plan handles.
	ErrNotFound = partitioning.ErrNotFound

	// ErrNoAppliedPlan fails the write task when nothing was applied.
	ErrNoAppliedPlan = fmt.Errorf("storage: no applied partitioning: %w", errdefs.ErrFailedPrecondition)

	// ErrSuperseded fails a reset whose result was replaced by a newer reset.
	ErrSuperseded = fmt.Errorf("storage: reset superseded: %w", errdefs.ErrAborted)

	// ErrIO is returned when the configuration cannot be persisted.
	ErrIO = fmt.Errorf("storage: i/o error: %w", errdefs.ErrUnavailable)
)
