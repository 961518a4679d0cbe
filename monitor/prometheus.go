package monitor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMonitor records retry-boundary events as Prometheus metrics,
// grounded on the teacher's examples/prometheus/main.go PrometheusObserver
// (counters keyed by outcome, registered against a caller-supplied
// *prometheus.Registry). Unlike the teacher's example, this is a first-
// class Monitor implementation rather than a standalone demo.
type PrometheusMonitor struct {
	retrying    *prometheus.CounterVec
	interrupted *prometheus.CounterVec
	aborted     *prometheus.CounterVec
	backoff     *prometheus.HistogramVec
}

// NewPrometheusMonitor registers its metrics against reg and returns a
// Monitor that updates them. reg must not be nil.
func NewPrometheusMonitor(reg prometheus.Registerer) *PrometheusMonitor {
	m := &PrometheusMonitor{
		retrying: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atmos",
			Name:      "retrying_total",
			Help:      "Number of retrying events emitted by the retry driver.",
		}, []string{"name"}),
		interrupted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atmos",
			Name:      "interrupted_total",
			Help:      "Number of interrupted events emitted by the retry driver.",
		}, []string{"name"}),
		aborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atmos",
			Name:      "aborted_total",
			Help:      "Number of aborted events emitted by the retry driver.",
		}, []string{"name"}),
		backoff: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atmos",
			Name:      "backoff_seconds",
			Help:      "Computed backoff duration ahead of a retry.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"}),
	}
	reg.MustRegister(m.retrying, m.interrupted, m.aborted, m.backoff)
	return m
}

func (m *PrometheusMonitor) Retrying(_ context.Context, name string, _ error, _ int, backoff time.Duration, _ bool) {
	m.retrying.WithLabelValues(label(name)).Inc()
	m.backoff.WithLabelValues(label(name)).Observe(backoff.Seconds())
}

func (m *PrometheusMonitor) Interrupted(_ context.Context, name string, _ error, _ int) {
	m.interrupted.WithLabelValues(label(name)).Inc()
}

func (m *PrometheusMonitor) Aborted(_ context.Context, name string, _ error, _ int) {
	m.aborted.WithLabelValues(label(name)).Inc()
}

func label(name string) string {
	if name == "" {
		return "unnamed"
	}
	return name
}
