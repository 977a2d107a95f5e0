package runner

import (
	"github.com/viant/diskor/metrics"
	"github.com/viant/diskor/model/task"
	"github.com/viant/diskor/service/dao"
	"github.com/viant/diskor/service/messaging"
)

// Option customises the runner
type Option func(*Service)

// Listener is notified after every task state or progress change
type Listener func(snapshot *task.Task)

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.Workers = count
	}
}

// WithQueue sets the start queue implementation
func WithQueue(queue messaging.Queue[task.Ref]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithTaskDAO sets the task table store
func WithTaskDAO(taskDAO dao.Service[string, task.Task]) Option {
	return func(s *Service) {
		s.taskDAO = taskDAO
	}
}

// WithJournal mirrors every task save into journal
func WithJournal(journal dao.Service[string, task.Task]) Option {
	return func(s *Service) {
		s.journal = journal
	}
}

// WithMetrics sets collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithListener registers a change listener
func WithListener(listener Listener) Option {
	return func(s *Service) {
		if listener != nil {
			s.listeners = append(s.listeners, listener)
		}
	}
}

// WithToken sets the handle token, mainly for tests
func WithToken(token string) Option {
	return func(s *Service) {
		s.token = token
	}
}
