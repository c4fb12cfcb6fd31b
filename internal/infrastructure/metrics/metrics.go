// Package metrics exposes Prometheus instrumentation for the dashboard.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Cache results.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheError  = "error"
	CacheBypass = "bypass"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the dashboard collectors.
type Metrics struct {
	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	CacheRequests  *prometheus.CounterVec
	BreakerState   *prometheus.GaugeVec
	Renders        *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	SeededStudents prometheus.Gauge
}

// New registers all collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_lookups_total",
			Help: "Student lookups by outcome",
		}, []string{"outcome"}),
		LookupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_lookup_duration_seconds",
			Help:    "Duration of student lookups by storage backend",
			Buckets: latencyBuckets,
		}, []string{"backend"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_requests_total",
			Help: "Student cache requests by result",
		}, []string{"result"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		}, []string{"name"}),
		Renders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_renders_total",
			Help: "Dashboards rendered by surface",
		}, []string{"surface"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: latencyBuckets,
		}, []string{"method", "route"}),
		SeededStudents: f.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_seeded_students",
			Help: "Students written by the last seed run",
		}),
	}
}

// ObserveLookup records a lookup outcome and its duration.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLookup(backend, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
	m.LookupDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}

// IncCache records a cache request result.
func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// SetBreakerState records the current state of a named circuit breaker.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// IncRender records a rendered dashboard.
func (m *Metrics) IncRender(surface string) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(surface).Inc()
}

// ObserveHTTP records a finished HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// SetSeeded records how many students the seed run wrote.
func (m *Metrics) SetSeeded(n int) {
	if m == nil {
		return
	}
	m.SeededStudents.Set(float64(n))
}
