package worker

import (
	"tagfeed/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics tracks warm job execution alongside the embedded
// configuration metrics:
//
//	worker_warm_runs_total{status}        runs by success/failure
//	worker_warm_duration_seconds          run duration histogram
//	worker_warm_feeds_total{status}       per-feed outcomes across runs
//	worker_warm_last_success_timestamp    Unix time of last clean run
type WorkerMetrics struct {
	*config.ConfigMetrics

	WarmRunsTotal *prometheus.CounterVec

	WarmDurationSeconds prometheus.Histogram

	WarmFeedsTotal *prometheus.CounterVec

	WarmLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the warm job metric set with the default
// registry via promauto. Construct it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		WarmRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_warm_runs_total",
			Help: "Total number of warm runs by status (success/failure)",
		}, []string{"status"}),

		WarmDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "worker_warm_duration_seconds",
			Help: "Duration of warm runs in seconds",
			// A run covers a handful of feed fetches, so buckets top out
			// well under the 4m default timeout.
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 240},
		}),

		WarmFeedsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_warm_feeds_total",
			Help: "Total number of feeds warmed across all runs by status (success/failure)",
		}, []string{"status"}),

		WarmLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_warm_last_success_timestamp",
			Help: "Unix timestamp of the last fully successful warm run",
		}),
	}
}

// RecordRun counts a warm run as "success" or "failure".
func (m *WorkerMetrics) RecordRun(status string) {
	m.WarmRunsTotal.WithLabelValues(status).Inc()
}

// RecordRunDuration observes a warm run's wall time in seconds.
func (m *WorkerMetrics) RecordRunDuration(seconds float64) {
	m.WarmDurationSeconds.Observe(seconds)
}

// RecordFeedWarmed counts one feed's outcome within a run.
func (m *WorkerMetrics) RecordFeedWarmed(status string) {
	m.WarmFeedsTotal.WithLabelValues(status).Inc()
}

// RecordLastSuccess marks now as the last run with no failed feeds.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.WarmLastSuccessTimestamp.SetToCurrentTime()
}
