// Package storage implements the storage orchestrator: it owns the storage
// model snapshot and the partitioning plans, runs long operations as tasks and
// publishes property changes after every commit.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/containerd/log"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/metrics"
	"github.com/viant/diskor/model/device"
	mpartitioning "github.com/viant/diskor/model/partitioning"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/progress"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/service/partitioning"
	"github.com/viant/diskor/service/runner"
	"github.com/viant/diskor/tracing"
)

// DefaultSysroot is the root of the installed system
const DefaultSysroot = "/mnt/sysroot"

// EventSource tags change events
const EventSource = "storage"

// Task names
const (
	ResetTaskName = "Reset storage"
	WriteTaskName = "Write storage configuration"
)

// Service is the storage orchestrator
type Service struct {
	// mux guards the registry, applied, model, state and generation
	mux sync.RWMutex
	// emitMux keeps notifications in commit order
	emitMux sync.Mutex

	backend    backend.Storage
	runner     *runner.Service
	registry   *partitioning.Registry
	applied    string
	model      *device.Model
	state      State
	generation uint64

	fs        afs.Service
	sysroot   string
	publisher *event.Publisher[Change]
	metrics   *metrics.Metrics
}

// New creates an orchestrator running its tasks on aRunner
func New(storage backend.Storage, aRunner *runner.Service, options ...Option) (*Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage: backend was nil")
	}
	if aRunner == nil {
		return nil, fmt.Errorf("storage: runner was nil")
	}
	s := &Service{
		backend: storage,
		runner:  aRunner,
		state:   StateUninitialized,
		sysroot: DefaultSysroot,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.registry == nil {
		s.registry = partitioning.New()
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.publisher == nil {
		s.publisher = event.NewPublisher[Change](nil)
	}
	s.sysroot = url.Normalize(s.sysroot, file.Scheme)
	return s, nil
}

// Subscribe registers a change handler; the returned function removes it.
func (s *Service) Subscribe(handler event.Handler[Change]) func() {
	return s.publisher.Subscribe(handler)
}

// ResetWithTask returns a pending task that probes the backend and replaces
// the storage model. The committed reset discards every plan.
func (s *Service) ResetWithTask(ctx context.Context) (string, error) {
	return s.runner.Create(ctx, &task.Work{
		Name:        ResetTaskName,
		Steps:       2,
		Cancellable: true,
		Run: func(ctx context.Context) (interface{}, error) {
			return nil, s.reset(ctx)
		},
	})
}

func (s *Service) reset(ctx context.Context) error {
	s.mux.Lock()
	s.generation++
	generation := s.generation
	s.state = StateResetting
	s.mux.Unlock()

	progress.ReportCtx(ctx, 1, "Probing storage.")
	probeCtx, span := tracing.StartBackendSpan(ctx, "probe")
	model, err := s.backend.Probe(probeCtx)
	tracing.EndSpan(span, err)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mux.Lock()
		if s.generation == generation {
			s.state = s.settledStateLocked()
		}
		s.mux.Unlock()
		return err
	}

	progress.ReportCtx(ctx, 2, "Updating the model.")
	s.mux.Lock()
	if s.generation != generation {
		s.mux.Unlock()
		return ErrSuperseded
	}
	before := s.propertiesLocked()
	s.model = model
	s.registry.Reset()
	s.applied = NoPartitioning
	s.state = StateReady
	changes := before.diff(s.propertiesLocked())
	s.unlockAndEmit(ctx, changes)
	log.G(ctx).WithField("devices", model.Count()).Debug("storage model replaced")
	return nil
}

// CreatePartitioning adds a plan of method and returns its handle.
func (s *Service) CreatePartitioning(ctx context.Context, method string) (string, error) {
	s.mux.Lock()
	before := s.propertiesLocked()
	handle, err := s.registry.Create(method)
	if err != nil {
		s.mux.Unlock()
		return "", err
	}
	changes := before.diff(s.propertiesLocked())
	s.unlockAndEmit(ctx, changes)
	s.metrics.PlanCreated(method)
	log.G(ctx).WithField("plan", handle).WithField("method", method).Debug("partitioning created")
	return handle, nil
}

// ApplyPartitioning selects the plan used by the write task. Applying the
// applied plan again changes nothing.
func (s *Service) ApplyPartitioning(ctx context.Context, handle string) error {
	s.mux.Lock()
	if _, err := s.registry.Lookup(handle); err != nil {
		s.mux.Unlock()
		return err
	}
	if s.applied == handle {
		s.mux.Unlock()
		return nil
	}
	before := s.propertiesLocked()
	s.applied = handle
	changes := before.diff(s.propertiesLocked())
	s.unlockAndEmit(ctx, changes)
	log.G(ctx).WithField("plan", handle).Debug("partitioning applied")
	return nil
}

// ConfigurePartitioning replaces the request of a plan
func (s *Service) ConfigurePartitioning(ctx context.Context, handle string, request mpartitioning.Request) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.registry.Configure(handle, request)
}

// DescribePartitioning returns a copy of a plan
func (s *Service) DescribePartitioning(handle string) (*mpartitioning.Plan, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.registry.Describe(handle)
}

// ValidatePartitioning resolves a plan against the current model
func (s *Service) ValidatePartitioning(handle string) (*mpartitioning.Layout, error) {
	s.mux.RLock()
	plan, err := s.registry.Describe(handle)
	model := s.model.Clone()
	s.mux.RUnlock()
	if err != nil {
		return nil, err
	}
	return plan.Layout(model)
}

// CreatedPartitioning returns plan handles in creation order
func (s *Service) CreatedPartitioning() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.registry.List()
}

// AppliedPartitioning returns the applied handle or NoPartitioning
func (s *Service) AppliedPartitioning() string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.applied
}

// State returns the orchestrator state
func (s *Service) State() State {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.state
}

// Model returns a copy of the storage model, nil before the first reset
func (s *Service) Model() *device.Model {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.model.Clone()
}

// Sysroot returns the normalised target system root URL
func (s *Service) Sysroot() string {
	return s.sysroot
}

// settledStateLocked is the state without a reset in flight
func (s *Service) settledStateLocked() State {
	if s.model != nil {
		return StateReady
	}
	return StateUninitialized
}

func (s *Service) propertiesLocked() properties {
	return properties{created: s.registry.List(), applied: s.applied}
}

// unlockAndEmit releases s.mux and publishes changes. The emission lock is
// taken before the state lock is released so that notifications follow
// commit order.
func (s *Service) unlockAndEmit(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		s.mux.Unlock()
		return
	}
	s.emitMux.Lock()
	s.mux.Unlock()
	defer s.emitMux.Unlock()
	for i := range changes {
		anEvent := event.NewEvent(&event.Context{Source: EventSource, EventType: changes[i].Property}, changes[i])
		if err := s.publisher.Publish(ctx, anEvent); err != nil {
			log.G(ctx).WithError(err).WithField("property", changes[i].Property).Warn("failed to publish change")
		}
	}
}
