// Package metrics exposes Prometheus metrics for parkrun-stats.
//
// Metrics live on a private registry so that the /metrics endpoint only
// reports what this program records.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parkrun_stats"

// Manager owns one set of collectors registered on one registry.
type Manager struct {
	registry *prometheus.Registry

	fetches        *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	rowsNormalized prometheus.Counter
	rowDefects     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	buckets []float64
}

// WithHistogramBuckets sets custom latency buckets, in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// NewManager creates collectors on a fresh registry.
func NewManager(opts ...Option) *Manager {
	o := options{buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetches_total",
			Help:      "Upstream page fetches by outcome (ok, not_found, unavailable).",
		}, []string{"outcome"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent on one upstream fetch.",
			Buckets:   o.buckets,
		}),
		rowsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalizer",
			Name:      "rows_total",
			Help:      "Result rows that survived normalization.",
		}),
		rowDefects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalizer",
			Name:      "defects_total",
			Help:      "Result rows rejected during normalization by defect kind.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP API requests by route and status code.",
		}, []string{"route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP API request latency by route.",
			Buckets:   o.buckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.fetches,
		m.fetchLatency,
		m.rowsNormalized,
		m.rowDefects,
		m.httpRequests,
		m.httpLatency,
	)
	return m
}

// Registry returns the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one upstream fetch.
func (m *Manager) ObserveFetch(outcome string, d time.Duration) {
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchLatency.Observe(d.Seconds())
}

// AddRowsNormalized counts rows kept by the normalizer.
func (m *Manager) AddRowsNormalized(n int) {
	m.rowsNormalized.Add(float64(n))
}

// IncDefect counts one rejected row.
func (m *Manager) IncDefect(kind string) {
	m.rowDefects.WithLabelValues(kind).Inc()
}

// ObserveHTTPRequest records one API request.
func (m *Manager) ObserveHTTPRequest(route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

var global = NewManager()

// Default returns the process-wide manager used by the package functions.
func Default() *Manager { return global }

// ObserveFetch records one upstream fetch on the default manager.
func ObserveFetch(outcome string, d time.Duration) { global.ObserveFetch(outcome, d) }

// AddRowsNormalized counts kept rows on the default manager.
func AddRowsNormalized(n int) { global.AddRowsNormalized(n) }

// IncDefect counts one rejected row on the default manager.
func IncDefect(kind string) { global.IncDefect(kind) }
