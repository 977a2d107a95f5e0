// Package memory provides in-process backends with injectable behaviour.
package memory

import (
	"context"
	"sync"

	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/internal/clock"
	"github.com/viant/diskor/model/device"
	"github.com/viant/diskor/model/partitioning"
)

// ProbeFunc replaces the default probe
type ProbeFunc func(ctx context.Context) (*device.Model, error)

// ApplyFunc replaces the default apply
type ApplyFunc func(ctx context.Context, model *device.Model, layout *partitioning.Layout) (*backend.Result, error)

// Storage serves a preset model
type Storage struct {
	mux     sync.Mutex
	model   *device.Model
	probe   ProbeFunc
	apply   ApplyFunc
	probes  int
	applied []*partitioning.Layout
}

// StorageOption configures Storage
type StorageOption func(s *Storage)

// WithProbe sets the probe hook
func WithProbe(fn ProbeFunc) StorageOption {
	return func(s *Storage) {
		s.probe = fn
	}
}

// WithApply sets the apply hook
func WithApply(fn ApplyFunc) StorageOption {
	return func(s *Storage) {
		s.apply = fn
	}
}

// NewStorage creates a backend returning copies of model
func NewStorage(model *device.Model, options ...StorageOption) *Storage {
	s := &Storage{model: model}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Probe returns a copy of the preset model
func (s *Storage) Probe(ctx context.Context) (*device.Model, error) {
	s.mux.Lock()
	s.probes++
	probe := s.probe
	model := s.model.Clone()
	s.mux.Unlock()
	if probe != nil {
		return probe(ctx)
	}
	if model == nil {
		model = &device.Model{}
	}
	model.ProbedAt = clock.Now()
	return model, nil
}

// SetModel replaces the preset model used by later probes
func (s *Storage) SetModel(model *device.Model) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.model = model
}

// Apply records layout and returns the planned actions
func (s *Storage) Apply(ctx context.Context, model *device.Model, layout *partitioning.Layout) (*backend.Result, error) {
	s.mux.Lock()
	s.applied = append(s.applied, layout)
	apply := s.apply
	s.mux.Unlock()
	if apply != nil {
		return apply(ctx, model, layout)
	}
	return &backend.Result{Actions: backend.Plan(layout)}, nil
}

// Probes returns the number of Probe calls
func (s *Storage) Probes() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.probes
}

// Applied returns the layouts passed to Apply
func (s *Storage) Applied() []*partitioning.Layout {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]*partitioning.Layout(nil), s.applied...)
}

// SampleModel returns a model with one empty 100 GiB disk and one 20 GiB disk
// holding an xfs filesystem on its single partition.
func SampleModel() *device.Model {
	const gib = 1024 * device.MiB
	return &device.Model{Devices: []*device.Device{
		{Name: "vda", Path: "/dev/vda", Type: device.TypeDisk, Size: 100 * gib},
		{Name: "vdb", Path: "/dev/vdb", Type: device.TypeDisk, Size: 20 * gib, Children: []*device.Device{
			{Name: "vdb1", Path: "/dev/vdb1", Type: device.TypePartition, Size: 20 * gib, FSType: "xfs"},
		}},
		{Name: "sr0", Path: "/dev/sr0", Type: device.TypeRom, Size: 1 * gib, ReadOnly: true},
	}}
}
