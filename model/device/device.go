// Package device holds the storage model snapshot produced by a backend probe.
package device

import (
	"fmt"
	"time"

	"github.com/containerd/errdefs"
)

// Type classifies a device
type Type string

// Device types reported by probing
const (
	TypeDisk      Type = "disk"
	TypePartition Type = "part"
	TypeLVM       Type = "lvm"
	TypeCrypt     Type = "crypt"
	TypeLoop      Type = "loop"
	TypeRom       Type = "rom"
)

// MiB is one mebibyte in bytes
const MiB = int64(1024 * 1024)

// ErrDeviceNotFound is returned by Lookup for unknown devices.
var ErrDeviceNotFound = fmt.Errorf("device: not found: %w", errdefs.ErrNotFound)

// Device is a block device with optional children
type Device struct {
	Name       string    `json:"name" yaml:"name"`
	Path       string    `json:"path,omitempty" yaml:"path,omitempty"`
	Type       Type      `json:"type" yaml:"type"`
	Size       int64     `json:"size" yaml:"size"`
	FSType     string    `json:"fsType,omitempty" yaml:"fsType,omitempty"`
	Mountpoint string    `json:"mountpoint,omitempty" yaml:"mountpoint,omitempty"`
	ReadOnly   bool      `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Children   []*Device `json:"children,omitempty" yaml:"children,omitempty"`
}

// SizeMiB returns the size rounded down to MiB
func (d *Device) SizeMiB() int64 {
	return d.Size / MiB
}

// Clone returns a deep copy
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	ret := *d
	if len(d.Children) > 0 {
		ret.Children = make([]*Device, len(d.Children))
		for i, child := range d.Children {
			ret.Children[i] = child.Clone()
		}
	}
	return &ret
}

// Model is a probed snapshot of the storage devices
type Model struct {
	Devices  []*Device `json:"devices" yaml:"devices"`
	ProbedAt time.Time `json:"probedAt" yaml:"probedAt"`
}

// Clone returns a deep copy
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	ret := &Model{ProbedAt: m.ProbedAt, Devices: make([]*Device, len(m.Devices))}
	for i, d := range m.Devices {
		ret.Devices[i] = d.Clone()
	}
	return ret
}

// Walk visits every device depth first; returning false stops the walk.
func (m *Model) Walk(fn func(d *Device) bool) {
	if m == nil {
		return
	}
	var visit func(devices []*Device) bool
	visit = func(devices []*Device) bool {
		for _, d := range devices {
			if !fn(d) {
				return false
			}
			if !visit(d.Children) {
				return false
			}
		}
		return true
	}
	visit(m.Devices)
}

// Lookup finds a device by name or path, with or without the /dev/ prefix.
func (m *Model) Lookup(spec string) (*Device, error) {
	var ret *Device
	m.Walk(func(d *Device) bool {
		if d.Name == spec || d.Path == spec || "/dev/"+d.Name == spec {
			ret = d
			return false
		}
		return true
	})
	if ret == nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, spec)
	}
	return ret, nil
}

// Disks returns top level writable disks in model order
func (m *Model) Disks() []*Device {
	if m == nil {
		return nil
	}
	var ret []*Device
	for _, d := range m.Devices {
		if d.Type == TypeDisk && !d.ReadOnly {
			ret = append(ret, d)
		}
	}
	return ret
}

// Count returns the number of devices in the tree
func (m *Model) Count() int {
	count := 0
	m.Walk(func(*Device) bool {
		count++
		return true
	})
	return count
}
