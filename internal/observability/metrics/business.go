package metrics

import (
	"time"
)

// RecordFeedFetch records the outcome and duration of a feed fetch, plus the
// number of items the fetch normalized.
func RecordFeedFetch(success bool, duration time.Duration, items int) {
	result := "success"
	if !success {
		result = "failure"
	}
	FeedFetchesTotal.WithLabelValues(result).Inc()
	FeedFetchDuration.Observe(duration.Seconds())

	if items > 0 {
		FeedItemsNormalizedTotal.Add(float64(items))
	}
}

// RecordEnrichmentPass records the outcome and duration of one enrichment pass.
// Outcome should be "completed", "deadline", or "error".
func RecordEnrichmentPass(outcome string, duration time.Duration) {
	EnrichmentPassesTotal.WithLabelValues(outcome).Inc()
	EnrichmentPassDuration.Observe(duration.Seconds())
}

// RecordItemTagged records where one item's tags came from.
// Origin should be "cache", "classifier", or "fallback".
func RecordItemTagged(origin string) {
	ItemsTaggedTotal.WithLabelValues(origin).Inc()
}

// RecordTagEntriesReconciled records orphaned tag entries removed in one
// reconciliation pass.
func RecordTagEntriesReconciled(removed int) {
	if removed > 0 {
		TagEntriesReconciledTotal.Add(float64(removed))
	}
}

// RecordCacheInvalidation records a full cache wipe.
func RecordCacheInvalidation() {
	CacheInvalidationsTotal.Inc()
}

// RecordKVOperation records the duration of a key-value store operation.
// Operation should describe the call (e.g., "get", "put", "list").
func RecordKVOperation(operation string, duration time.Duration) {
	KVOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordKVEntriesReaped records expired entries removed by a reaper sweep.
func RecordKVEntriesReaped(removed int64) {
	if removed > 0 {
		KVEntriesReaped.Add(float64(removed))
	}
}
