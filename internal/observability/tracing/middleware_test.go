package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupExporter installs an in-memory exporter for the duration of a test.
func setupExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.ForceFlush(context.Background())
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
	})
	return exporter
}

func attrValue(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value.Emit(), true
		}
	}
	return "", false
}

func TestMiddleware_RecordsSpanPerRequest(t *testing.T) {
	exporter := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rss", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans recorded = %d, want 1", len(spans))
	}

	span := spans[0]
	if span.Name != "GET /rss" {
		t.Errorf("span name = %q, want %q", span.Name, "GET /rss")
	}
	if v, ok := attrValue(span, "http.method"); !ok || v != "GET" {
		t.Errorf("http.method attribute = %q, want GET", v)
	}
	if v, ok := attrValue(span, "http.path"); !ok || v != "/rss" {
		t.Errorf("http.path attribute = %q, want /rss", v)
	}
	if v, ok := attrValue(span, "http.status_code"); !ok || v != "200" {
		t.Errorf("http.status_code attribute = %q, want 200", v)
	}
}

func TestMiddleware_SetsTraceIDHeader(t *testing.T) {
	setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rss", nil))

	if rec.Header().Get("X-Trace-Id") == "" {
		t.Error("X-Trace-Id header missing from response")
	}
}

func TestMiddleware_MarksServerErrors(t *testing.T) {
	exporter := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rss", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans recorded = %d, want 1", len(spans))
	}
	if v, ok := attrValue(spans[0], "error"); !ok || v != "true" {
		t.Errorf("error attribute = %q, want true on a 5xx response", v)
	}
	if v, _ := attrValue(spans[0], "http.status_code"); v != "500" {
		t.Errorf("http.status_code attribute = %q, want 500", v)
	}
}

func TestMiddleware_HonorsIncomingTraceContext(t *testing.T) {
	exporter := setupExporter(t)

	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	const upstreamTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/rss", nil)
	req.Header.Set("traceparent", "00-"+upstreamTrace+"-00f067aa0ba902b7-01")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans recorded = %d, want 1", len(spans))
	}
	if got := spans[0].SpanContext.TraceID().String(); got != upstreamTrace {
		t.Errorf("trace ID = %s, want upstream %s", got, upstreamTrace)
	}
	if got := rec.Header().Get("X-Trace-Id"); got != upstreamTrace {
		t.Errorf("X-Trace-Id = %s, want upstream %s", got, upstreamTrace)
	}
}

func TestGetTracer_FollowsCurrentProvider(t *testing.T) {
	// Spans created before a provider swap must not pin later spans to the
	// old provider.
	first := setupExporter(t)

	_, span := GetTracer().Start(context.Background(), "before-swap")
	span.End()

	second := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(second))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(sdktrace.NewTracerProvider()) })

	_, span = GetTracer().Start(context.Background(), "after-swap")
	span.End()

	if n := len(first.GetSpans()); n != 1 {
		t.Errorf("spans on the first provider = %d, want 1", n)
	}
	if n := len(second.GetSpans()); n != 1 {
		t.Fatalf("spans on the swapped-in provider = %d, want 1", n)
	}
}
