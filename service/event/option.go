package event

import (
	"github.com/viant/diskor/service/messaging/memory"
)

// Option customises the event service
type Option func(s *Service)

// WithQueueConfig sets the memory queue configuration per event type name
func WithQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.newQueueConfig = newConfig
	}
}

// WithoutQueues disables drain queues; only synchronous handlers are served.
func WithoutQueues() Option {
	return func(s *Service) {
		s.newQueueConfig = nil
	}
}
