// Package metrics exposes Prometheus counters for registration outcomes.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "symposium"

var (
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration submissions by variant and outcome (created, replaced, duplicate, invalid, closed, error).",
		},
		[]string{"variant", "outcome"},
	)
	gateClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_closed_total",
			Help:      "Gating decisions that blocked a registration, by variant and reason.",
		},
		[]string{"variant", "reason"},
	)
	settingsFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_fetch_failures_total",
			Help:      "Settings reads that fell back to defaults.",
		},
	)
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proof_uploads_total",
			Help:      "Payment proof uploads by result (stored, rejected, failed).",
		},
		[]string{"result"},
	)
	orphansRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphaned_uploads_removed_total",
			Help:      "Proof uploads deleted by the janitor because no registration references them.",
		},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

var registerMetrics sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(
			registrationsTotal,
			gateClosedTotal,
			settingsFetchFailures,
			uploadsTotal,
			orphansRemoved,
			requestDuration,
		)
	})
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRegistration counts one submission outcome
func RecordRegistration(variant, outcome string) {
	registrationsTotal.WithLabelValues(variant, outcome).Inc()
}

// RecordGateClosed counts a blocked registration attempt
func RecordGateClosed(variant, reason string) {
	gateClosedTotal.WithLabelValues(variant, reason).Inc()
}

// RecordSettingsFetchFailure counts a settings read that fell back to defaults
func RecordSettingsFetchFailure() {
	settingsFetchFailures.Inc()
}

// RecordUpload counts a proof upload result
func RecordUpload(result string) {
	uploadsTotal.WithLabelValues(result).Inc()
}

// RecordOrphansRemoved adds n janitor deletions
func RecordOrphansRemoved(n int) {
	orphansRemoved.Add(float64(n))
}

// ObserveRequest records the latency of one HTTP request
func ObserveRequest(route, status string, elapsed time.Duration) {
	requestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
