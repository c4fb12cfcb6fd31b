package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLookup("memory", OutcomeFound, time.Now())
	m.ObserveLookup("memory", OutcomeNotFound, time.Now())
	m.ObserveLookup("memory", OutcomeFound, time.Now())
	m.IncCache(CacheHit)
	m.SetBreakerState("student-cache", 1)
	m.IncRender("cli")
	m.ObserveHTTP("GET", "/health", 200, time.Now())
	m.SetSeeded(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Lookups.WithLabelValues(OutcomeFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues(OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues(CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("student-cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("cli")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SeededStudents))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveLookup("memory", OutcomeError, time.Now())
		m.IncCache(CacheMiss)
		m.SetBreakerState("x", 0)
		m.IncRender("http")
		m.ObserveHTTP("GET", "/", 500, time.Now())
		m.SetSeeded(3)
	})
}
