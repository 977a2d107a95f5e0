// Package backend defines the collaborators that touch real storage hardware.
// The orchestrator and the zFCP module only ever talk to these interfaces.
package backend

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"
	"github.com/viant/diskor/model/device"
	"github.com/viant/diskor/model/partitioning"
	"github.com/viant/diskor/model/zfcp"
)

// ErrCommand is returned when a backend command exits with a failure.
var ErrCommand = fmt.Errorf("backend: command failed: %w", errdefs.ErrUnavailable)

// Storage probes and changes block devices
type Storage interface {
	// Probe returns a fresh storage model
	Probe(ctx context.Context) (*device.Model, error)
	// Apply realises layout on model
	Apply(ctx context.Context, model *device.Model, layout *partitioning.Layout) (*Result, error)
}

// ZFCP brings zFCP devices online
type ZFCP interface {
	// Startup loads the kernel support
	Startup(ctx context.Context) error
	// Discover activates one LUN
	Discover(ctx context.Context, aDevice *zfcp.Device) error
}

// Action is one step taken (or planned) by Apply
type Action struct {
	Kind   string `json:"kind" yaml:"kind"`
	Device string `json:"device" yaml:"device"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (a Action) String() string {
	if a.Detail == "" {
		return a.Kind + " " + a.Device
	}
	return a.Kind + " " + a.Device + " " + a.Detail
}

// Action kinds
const (
	ActionCreate  = "create"
	ActionEncrypt = "encrypt"
	ActionFormat  = "format"
	ActionMount   = "mount"
)

// Result is the outcome of Apply
type Result struct {
	Actions []Action `json:"actions" yaml:"actions"`
}

// Plan lists the actions that realise layout, in execution order
func Plan(layout *partitioning.Layout) []Action {
	var ret []Action
	for _, entry := range layout.Entries {
		if entry.Create {
			ret = append(ret, Action{Kind: ActionCreate, Device: entry.Device, Detail: fmt.Sprintf("%dMiB", entry.SizeMiB)})
		}
	}
	for _, entry := range layout.Entries {
		if entry.Encrypted {
			ret = append(ret, Action{Kind: ActionEncrypt, Device: entry.Device, Detail: "luks2"})
		}
	}
	for _, entry := range layout.Entries {
		if entry.Format {
			ret = append(ret, Action{Kind: ActionFormat, Device: entry.Device, Detail: entry.FSType})
		}
	}
	for _, entry := range layout.Entries {
		if !entry.IsSwap() {
			ret = append(ret, Action{Kind: ActionMount, Device: entry.Device, Detail: entry.MountPoint})
		}
	}
	return ret
}
