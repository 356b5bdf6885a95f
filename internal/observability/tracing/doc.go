// Package tracing provides OpenTelemetry tracing integration.
//
// The Middleware extracts W3C trace context from incoming requests, opens a
// server span per request, and echoes the trace ID back in the X-Trace-Id
// response header so clients can correlate their calls with server traces.
//
// Example usage:
//
//	import "tagfeed/internal/observability/tracing"
//
//	func enrich(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "enrichment-pass")
//	    defer span.End()
//	    // ... classify items ...
//	}
package tracing
