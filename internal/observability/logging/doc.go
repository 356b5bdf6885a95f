// Package logging builds the JSON slog logger both binaries share and
// carries loggers through context. NewLogger reads LOG_LEVEL once at
// startup; WithRequestID stamps the request ID from context onto a logger
// so a request's log lines can be pulled together.
package logging
