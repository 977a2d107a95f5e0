package partitioning

import (
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	// ErrInvalidMethod is returned for a method outside the supported set.
	ErrInvalidMethod = fmt.Errorf("partitioning: invalid method: %w", errdefs.ErrInvalidArgument)

	// ErrMethodMismatch is returned when a request does not match the plan method.
	ErrMethodMismatch = fmt.Errorf("partitioning: request does not match method: %w", errdefs.ErrInvalidArgument)

	// ErrInvalidRequest is returned when a request fails validation.
	ErrInvalidRequest = fmt.Errorf("partitioning: invalid request: %w", errdefs.ErrInvalidArgument)

	// ErrInvalidLayout is returned when a resolved layout is not usable.
	ErrInvalidLayout = fmt.Errorf("partitioning: invalid layout: %w", errdefs.ErrFailedPrecondition)

	// ErrNoDisks is returned when the model has no usable disk.
	ErrNoDisks = fmt.Errorf("partitioning: no usable disks: %w", errdefs.ErrFailedPrecondition)

	// ErrInsufficientSpace is returned when requested sizes exceed a disk.
	ErrInsufficientSpace = fmt.Errorf("partitioning: insufficient space: %w", errdefs.ErrResourceExhausted)
)
