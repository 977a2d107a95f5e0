package zfcp

import (
	"github.com/viant/afs"
	"github.com/viant/diskor/metrics"
)

// Option configures Service
type Option func(s *Service)

// WithSysroot sets the target system root URL
func WithSysroot(sysroot string) Option {
	return func(s *Service) {
		s.sysroot = sysroot
	}
}

// WithFS sets the storage service used to write zfcp.conf
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}
