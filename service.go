package diskor

import (
	"context"
	"fmt"
	"time"

	"github.com/containerd/log"
	"github.com/viant/afs"
	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/backend/memory"
	"github.com/viant/diskor/backend/shell"
	"github.com/viant/diskor/metrics"
	"github.com/viant/diskor/model/device"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/dao"
	taskfs "github.com/viant/diskor/service/dao/task/fs"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/service/runner"
	"github.com/viant/diskor/service/storage"
	"github.com/viant/diskor/service/zfcp"
)

// RunnerEventSource tags task snapshot events
const RunnerEventSource = "runner"

// Service wires the runner, the backends and the storage and zFCP modules
type Service struct {
	config         *Config
	fs             afs.Service
	events         *event.Service
	metrics        *metrics.Metrics
	runner         *runner.Service
	journal        dao.Service[string, task.Task]
	storageBackend backend.Storage
	zfcpBackend    backend.ZFCP
	shell          *shell.Service
	storage        *storage.Service
	zfcp           *zfcp.Service
}

// New creates a service from DefaultConfig with the memory backend
func New(ctx context.Context, options ...Option) (*Service, error) {
	cfg := DefaultConfig()
	cfg.Backend.Kind = BackendMemory
	return NewFromConfig(ctx, cfg, options...)
}

// NewFromConfig creates a service from cfg. Backends supplied with options
// take precedence over the configured kind.
func NewFromConfig(ctx context.Context, cfg *Config, options ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{config: cfg}
	for _, option := range options {
		option(s)
	}
	if err := s.init(ctx); err != nil {
		_ = s.close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context) (err error) {
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.events == nil {
		s.events = event.New()
	}
	if s.metrics == nil {
		s.metrics = metrics.New(s.config.Metrics.Runtime)
	}
	if URL := s.config.Journal.URL; URL != "" {
		if s.journal, err = taskfs.New(ctx, URL, s.fs); err != nil {
			return fmt.Errorf("failed to open journal %v: %w", URL, err)
		}
	}
	if err = s.initBackends(ctx); err != nil {
		return err
	}

	tasks := event.PublisherOf[task.Task](s.events)
	runnerOptions := []runner.Option{
		runner.WithConfig(s.config.Runner),
		runner.WithMetrics(s.metrics),
		runner.WithListener(func(snapshot *task.Task) {
			anEvent := event.NewEvent(&event.Context{Source: RunnerEventSource, EventType: string(snapshot.State), Object: snapshot.ID}, *snapshot)
			if err := tasks.Publish(context.Background(), anEvent); err != nil {
				log.L.WithError(err).WithField("task", snapshot.ID).Warn("failed to publish task")
			}
		}),
	}
	if s.journal != nil {
		runnerOptions = append(runnerOptions, runner.WithJournal(s.journal))
	}
	if s.runner, err = runner.New(runnerOptions...); err != nil {
		return err
	}

	s.storage, err = storage.New(s.storageBackend, s.runner,
		storage.WithFS(s.fs),
		storage.WithSysroot(s.config.Sysroot),
		storage.WithMetrics(s.metrics),
		storage.WithPublisher(event.PublisherOf[storage.Change](s.events)))
	if err != nil {
		return err
	}
	s.zfcp, err = zfcp.New(ctx, s.zfcpBackend, s.runner,
		zfcp.WithFS(s.fs),
		zfcp.WithSysroot(s.config.Sysroot),
		zfcp.WithMetrics(s.metrics))
	return err
}

func (s *Service) initBackends(ctx context.Context) error {
	if s.storageBackend != nil && s.zfcpBackend != nil {
		return nil
	}
	switch s.config.Backend.Kind {
	case BackendMemory:
		if s.storageBackend == nil {
			s.storageBackend = memory.NewStorage(memory.SampleModel())
		}
		if s.zfcpBackend == nil {
			s.zfcpBackend = memory.NewZFCP()
		}
	case BackendShell:
		session, err := shell.New(ctx, s.config.Backend.Shell)
		if err != nil {
			return err
		}
		s.shell = session
		if s.storageBackend == nil {
			s.storageBackend = shell.NewStorage(session)
		}
		if s.zfcpBackend == nil {
			s.zfcpBackend = shell.NewZFCP(session)
		}
	default:
		return fmt.Errorf("unsupported backend: %v", s.config.Backend.Kind)
	}
	return nil
}

// Start launches the runner workers and the event log listener
func (s *Service) Start(ctx context.Context) error {
	s.events.SetListener(func(anEvent *event.Event[any]) {
		entry := log.L.WithField("source", anEvent.Context.Source).WithField("type", anEvent.Context.EventType)
		if anEvent.Context.Object != "" {
			entry = entry.WithField("object", anEvent.Context.Object)
		}
		entry.Debug("event")
	})
	return s.runner.Start(ctx)
}

// Shutdown stops the runner, the listeners and the backend session
func (s *Service) Shutdown(ctx context.Context) error {
	if s.runner != nil {
		s.runner.Shutdown()
	}
	return s.close()
}

func (s *Service) close() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.shell != nil {
		return s.shell.Close()
	}
	return nil
}

// Reset runs a storage reset task to completion and returns the new model
func (s *Service) Reset(ctx context.Context, timeout time.Duration) (*device.Model, error) {
	id, err := s.storage.ResetWithTask(ctx)
	if err != nil {
		return nil, err
	}
	if err = s.runner.StartTask(ctx, id); err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if _, err = s.runner.Wait(ctx, id); err != nil {
		return nil, err
	}
	if _, err = s.runner.Result(id); err != nil {
		return nil, err
	}
	return s.storage.Model(), nil
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// Storage returns the storage orchestrator
func (s *Service) Storage() *storage.Service {
	return s.storage
}

// ZFCP returns the zFCP module
func (s *Service) ZFCP() *zfcp.Service {
	return s.zfcp
}

// Tasks returns the task runner
func (s *Service) Tasks() *runner.Service {
	return s.runner
}

// Events returns the event service
func (s *Service) Events() *event.Service {
	return s.events
}

// Metrics returns the metrics collector
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}
