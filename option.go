package diskor

import (
	"github.com/viant/afs"
	"github.com/viant/diskor/backend"
	"github.com/viant/diskor/metrics"
	"github.com/viant/diskor/service/event"
	"github.com/viant/diskor/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures Service
type Option func(s *Service)

// WithStorageBackend sets the storage backend, overriding the configured kind
func WithStorageBackend(storage backend.Storage) Option {
	return func(s *Service) {
		s.storageBackend = storage
	}
}

// WithZFCPBackend sets the zFCP backend, overriding the configured kind
func WithZFCPBackend(zfcp backend.ZFCP) Option {
	return func(s *Service) {
		s.zfcpBackend = zfcp
	}
}

// WithEventService sets the event service
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFS sets the file system used for the sysroot and the journal
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, for
// example OTLP, Jaeger or Zipkin. The first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
