package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// GetTracer returns the service tracer from the current global provider.
// Resolution happens per call rather than at package init so a provider
// installed after this package loads still receives the spans. Callers open
// spans with GetTracer().Start(ctx, name) and end them when the operation
// returns.
func GetTracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer("tagfeed")
}
