package storage

import (
	"github.com/viant/afs"
	"github.com/viant/diskor/metrics"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/service/partitioning"
)

// Option configures Service
type Option func(s *Service)

// WithSysroot sets the target system root URL
func WithSysroot(sysroot string) Option {
	return func(s *Service) {
		s.sysroot = sysroot
	}
}

// WithFS sets the storage service used to persist configuration
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithRegistry replaces the plan registry
func WithRegistry(registry *partitioning.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithPublisher sets the change publisher
func WithPublisher(publisher *event.Publisher[Change]) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}
