// Package metrics holds the Prometheus instruments for the coaching pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	safety    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	requests  *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		safety: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "safety_assessments_total",
			Help:      "Safety screen outcomes by severity and path.",
		}, []string{"severity", "path"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coach",
			Name:      "stage_fallbacks_total",
			Help:      "Stage fallbacks taken after a backend, timeout or parse failure.",
		}, []string{"stage", "kind"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coach",
			Name:      "request_duration_seconds",
			Help:      "Coaching pipeline latency by session type and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"session_type", "outcome"}),
	}
	reg.MustRegister(m.safety, m.fallbacks, m.requests)
	return m
}

// ObserveSafety counts one safety decision. path is "prefilter", "classifier" or "fail_closed".
func (m *Metrics) ObserveSafety(severity, path string) {
	if m == nil {
		return
	}
	m.safety.WithLabelValues(severity, path).Inc()
}

func (m *Metrics) ObserveFallback(stage, kind string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage, kind).Inc()
}

func (m *Metrics) ObserveRequest(sessionType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(sessionType, outcome).Observe(elapsed.Seconds())
}
