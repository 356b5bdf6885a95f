// Package observability groups the service's logging, metrics and tracing
// infrastructure.
//
// logging wraps slog with the JSON setup both binaries share, metrics holds
// the Prometheus registry and recorders, and tracing carries the
// OpenTelemetry setup plus the HTTP middleware that opens a span per
// request. Handlers and use cases import the subpackages directly; nothing
// lives at this level.
package observability
