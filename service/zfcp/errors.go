package zfcp

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// ErrIO is returned when zfcp.conf cannot be written.
var ErrIO = fmt.Errorf("zfcp: i/o error: %w", errdefs.ErrUnavailable)
