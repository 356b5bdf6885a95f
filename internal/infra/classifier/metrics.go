package classifier

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClassificationMetricsRecorder defines the interface for recording
// classification metrics. The interface abstracts the metrics backend so
// unit tests can inject a mock recorder instead of Prometheus.
type ClassificationMetricsRecorder interface {
	// RecordBatch records the outcome and duration of one classification
	// API call, labelled by provider.
	RecordBatch(provider string, success bool, duration time.Duration)
}

// PrometheusClassificationMetrics implements ClassificationMetricsRecorder
// using Prometheus metrics.
type PrometheusClassificationMetrics struct {
	batchCounter      *prometheus.CounterVec
	durationHistogram *prometheus.HistogramVec
}

var (
	classificationMetricsInstance *PrometheusClassificationMetrics
	classificationMetricsOnce     sync.Once
)

// NewPrometheusClassificationMetrics creates a new Prometheus-based metrics
// recorder. Uses singleton pattern to avoid duplicate metric registration
// in tests.
func NewPrometheusClassificationMetrics() *PrometheusClassificationMetrics {
	classificationMetricsOnce.Do(func() {
		classificationMetricsInstance = &PrometheusClassificationMetrics{
			batchCounter: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "tag_classification_batches_total",
				Help: "Total number of classification API batches by provider and result",
			}, []string{"provider", "result"}),
			durationHistogram: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "tag_classification_duration_seconds",
				Help:    "Time taken for one classification API batch",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, []string{"provider"}),
		}
	})
	return classificationMetricsInstance
}

// RecordBatch implements ClassificationMetricsRecorder.RecordBatch
func (p *PrometheusClassificationMetrics) RecordBatch(provider string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	p.batchCounter.WithLabelValues(provider, result).Inc()
	p.durationHistogram.WithLabelValues(provider).Observe(duration.Seconds())
}
