package dao

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// Common, reusable DAO errors. Each one wraps an errdefs class so that
// callers can test either the sentinel or the class.

var (
	// ErrNotFound is returned when the requested entity does not exist in the
	// underlying storage.
	ErrNotFound = fmt.Errorf("dao: %w", errdefs.ErrNotFound)

	// ErrInvalidID indicates that the supplied ID/key is empty or otherwise
	// invalid.
	ErrInvalidID = fmt.Errorf("dao: invalid id: %w", errdefs.ErrInvalidArgument)

	// ErrNilEntity is returned when the caller attempts to persist a nil
	// pointer.
	ErrNilEntity = fmt.Errorf("dao: nil entity: %w", errdefs.ErrInvalidArgument)
)
