package runner

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the chainline host
type Metrics struct {
	// Apply metrics
	applyTotal    *prometheus.CounterVec
	applyDuration *prometheus.HistogramVec

	// Composition metrics
	reloadsTotal       *prometheus.CounterVec
	skippedIdentifiers *prometheus.CounterVec
	pipelinesActive    prometheus.Gauge

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics instance with all host metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		applyTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainline_apply_total",
				Help: "Total number of pipeline applications by pipeline and status",
			},
			[]string{"pipeline", "status"},
		),

		applyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chainline_apply_duration_seconds",
				Help:    "Pipeline application latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainline_config_reloads_total",
				Help: "Total number of configuration reloads by status",
			},
			[]string{"status"},
		),

		skippedIdentifiers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainline_skipped_identifiers_total",
				Help: "Identifiers skipped during composition under skip_unresolved",
			},
			[]string{"pipeline"},
		),

		pipelinesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chainline_pipelines_active",
				Help: "Number of currently composed pipelines",
			},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainline_http_requests_total",
				Help: "Total number of HTTP requests by method, path and status code",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chainline_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.applyTotal,
		m.applyDuration,
		m.reloadsTotal,
		m.skippedIdentifiers,
		m.pipelinesActive,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)

	return m
}

// Handler returns an http.Handler exposing the metrics in Prometheus format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordApply records one pipeline application
func (m *Metrics) RecordApply(pipeline, status string, duration time.Duration) {
	m.applyTotal.WithLabelValues(pipeline, status).Inc()
	if status == "ok" {
		m.applyDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
	}
}

// RecordReload records a configuration reload attempt
func (m *Metrics) RecordReload(status string) {
	m.reloadsTotal.WithLabelValues(status).Inc()
}

// RecordSkipped records identifiers skipped during composition
func (m *Metrics) RecordSkipped(pipeline string, count int) {
	if count > 0 {
		m.skippedIdentifiers.WithLabelValues(pipeline).Add(float64(count))
	}
}

// SetActivePipelines records the current composed pipeline count
func (m *Metrics) SetActivePipelines(n int) {
	m.pipelinesActive.Set(float64(n))
}

// RecordHTTPRequest records one HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
