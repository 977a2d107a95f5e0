package partitioning

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// ErrNotFound is returned for handles the registry did not mint or no longer holds.
var ErrNotFound = fmt.Errorf("partitioning: plan not found: %w", errdefs.ErrNotFound)
