package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Business metrics track application-specific operations
var (
	// FeedFetchesTotal counts feed fetches by result
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetches_total",
			Help: "Total number of feed fetches",
		},
		[]string{"result"}, // result: success, failure
	)

	// FeedFetchDuration measures time to fetch and normalize a feed
	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and normalize a feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// FeedItemsNormalizedTotal counts normalized feed items
	FeedItemsNormalizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_items_normalized_total",
			Help: "Total number of feed items normalized after fetch",
		},
	)

	// EnrichmentPassesTotal counts enrichment passes by outcome
	EnrichmentPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_passes_total",
			Help: "Total number of tag enrichment passes",
		},
		[]string{"outcome"}, // outcome: completed, deadline, error
	)

	// EnrichmentPassDuration measures time for one enrichment pass
	EnrichmentPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_pass_duration_seconds",
			Help:    "Time taken for one tag enrichment pass over a feed",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	// ItemsTaggedTotal counts items resolved during enrichment by origin
	ItemsTaggedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_tagged_total",
			Help: "Total number of items that received tags",
		},
		[]string{"origin"}, // origin: cache, classifier, fallback
	)

	// TagEntriesReconciledTotal counts orphaned tag entries removed
	TagEntriesReconciledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tag_entries_reconciled_total",
			Help: "Total number of orphaned tag cache entries removed by reconciliation",
		},
	)

	// CacheInvalidationsTotal counts full cache invalidations
	CacheInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of full cache invalidations",
		},
	)
)

// Key-value store metrics track persistence performance
var (
	// KVOperationDuration measures key-value store operation duration
	KVOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kv_operation_duration_seconds",
			Help:    "Key-value store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// KVEntriesReaped counts expired entries removed by the reaper
	KVEntriesReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kv_entries_reaped_total",
			Help: "Total number of expired key-value entries removed",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordOperationDuration records the duration of a named key-value operation
func RecordOperationDuration(operation string, duration time.Duration) {
	KVOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
