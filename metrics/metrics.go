// Package metrics exposes task and partitioning counters on a prometheus
// registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "diskor"

// Metrics holds engine collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry     *prometheus.Registry
	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	running      prometheus.Gauge
	plans        *prometheus.CounterVec
	zfcpRecords  prometheus.Gauge
}

// New creates collectors registered on a fresh registry. With runtime set the
// Go and process collectors are registered too.
func New(runtime bool) *Metrics {
	ret := &Metrics{
		registry: prometheus.NewRegistry(),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "completed_total",
			Help:      "Tasks that reached a terminal state.",
		}, []string{"name", "state"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "duration_seconds",
			Help:      "Task run time from start to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
		}, []string{"name"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "running",
			Help:      "Tasks currently running.",
		}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "partitioning",
			Name:      "created_total",
			Help:      "Partitioning plans created by method.",
		}, []string{"method"}),
		zfcpRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "zfcp",
			Name:      "records",
			Help:      "Configured zFCP device records.",
		}),
	}
	ret.registry.MustRegister(ret.tasks, ret.taskDuration, ret.running, ret.plans, ret.zfcpRecords)
	if runtime {
		ret.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return ret
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TaskStarted increments the running gauge
func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.running.Inc()
}

// TaskFinished records a task reaching state after elapsed run time. wasRunning
// reports whether TaskStarted was called for it.
func (m *Metrics) TaskFinished(name, state string, elapsed time.Duration, wasRunning bool) {
	if m == nil {
		return
	}
	if wasRunning {
		m.running.Dec()
		m.taskDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	m.tasks.WithLabelValues(name, state).Inc()
}

// PlanCreated counts a new partitioning plan
func (m *Metrics) PlanCreated(method string) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(method).Inc()
}

// ZFCPRecords sets the number of zFCP records
func (m *Metrics) ZFCPRecords(count int) {
	if m == nil {
		return
	}
	m.zfcpRecords.Set(float64(count))
}
