// Package metrics exposes the broker's Prometheus collectors. Every
// instance carries its own registry so tests can build throwaway sets
// without tripping duplicate-registration panics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all broker-side Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Queue metrics
	PutsTotal      *prometheus.CounterVec
	GetsTotal      *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
	QueueHighWater prometheus.Gauge
	GetWaitSeconds prometheus.Histogram

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a metrics set backed by a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,

		PutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chute_queue_puts_total",
				Help: "Total put operations by outcome",
			},
			[]string{"status"},
		),
		GetsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chute_queue_gets_total",
				Help: "Total get operations by outcome",
			},
			[]string{"status"},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chute_queue_depth",
				Help: "Items currently queued",
			},
		),
		QueueHighWater: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chute_queue_high_water",
				Help: "Largest queue depth seen this run",
			},
		),
		GetWaitSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chute_queue_get_wait_seconds",
				Help:    "Time a get spent waiting for an item",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chute_http_requests_total",
				Help: "Total HTTP requests served by the broker",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chute_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordPut counts one put by outcome: "ok", "closed" or "full".
func (m *Metrics) RecordPut(status string) {
	m.PutsTotal.WithLabelValues(status).Inc()
}

// RecordGet counts one get by outcome ("ok", "empty", "closed") and
// observes how long it waited.
func (m *Metrics) RecordGet(status string, wait time.Duration) {
	m.GetsTotal.WithLabelValues(status).Inc()
	m.GetWaitSeconds.Observe(wait.Seconds())
}

// ObserveQueue refreshes the depth gauges from a snapshot.
func (m *Metrics) ObserveQueue(depth, highWater int) {
	m.QueueDepth.Set(float64(depth))
	m.QueueHighWater.Set(float64(highWater))
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
