// Package metrics holds every Prometheus series the service exports: HTTP
// request counts and latency, feed fetch and enrichment pipeline outcomes,
// and key-value store operations. Collectors register with the default
// registry at init and are scraped from /metrics; callers record through
// the Record* helpers rather than touching collectors directly.
package metrics
