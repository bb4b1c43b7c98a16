package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSafety("none", "prefilter")
	m.ObserveSafety("none", "prefilter")
	m.ObserveFallback("diagnostic", "timeout")
	m.ObserveRequest("diagnostic", "ok", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.safety.WithLabelValues("none", "prefilter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("diagnostic", "timeout")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSafety("high", "classifier")
	m.ObserveFallback("safety", "parse")
	m.ObserveRequest("reflection", "error", time.Second)
}
