// Package metrics exposes Prometheus collectors for the gateway.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one gateway instance on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

// New creates and registers the gateway collectors under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"service", "method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"service", "method", "path"},
		),
		backendCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "calls_total",
				Help:      "Total number of store backend calls.",
			},
			[]string{"store", "operation", "outcome"},
		),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "call_duration_seconds",
				Help:      "Duration of store backend calls.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"store", "operation"},
		),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.backendCalls,
		m.backendDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncrementInFlight() {
	m.httpInFlight.Inc()
}

func (m *Metrics) DecrementInFlight() {
	m.httpInFlight.Dec()
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(service, method, path, status).Inc()
	m.httpDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordBackendCall records one call to a store backend.
func (m *Metrics) RecordBackendCall(store, operation string, duration time.Duration, err error) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.backendCalls.WithLabelValues(store, operation, outcome).Inc()
	m.backendDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
}
