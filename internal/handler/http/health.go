// Package http provides the HTTP surface of the feed tagging service:
// the feed endpoints, health and metrics endpoints, and the middleware
// chain (logging, recovery, CORS, rate limiting, tracing).
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"tagfeed/internal/repository"
)

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler reports overall service health. The key-value store backing
// both caches is the only hard dependency; classifier outages degrade tagging
// but never take the service down, so they are not checked here.
type HealthHandler struct {
	Store   repository.KVStore
	Backend string
	Version string
}

// ServeHTTP returns 200 when the store responds to a ping within the
// deadline, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	allHealthy := true

	if h.Store != nil {
		checks["kvstore"] = h.checkStore(ctx)
		if checks["kvstore"].Status == "unhealthy" {
			allHealthy = false
		}
	} else {
		checks["kvstore"] = CheckStatus{
			Status:  "unhealthy",
			Message: "not configured",
		}
		allHealthy = false
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("health: failed to encode response", slog.Any("error", err))
	}
}

func (h *HealthHandler) checkStore(ctx context.Context) CheckStatus {
	start := time.Now()
	if err := h.Store.Ping(ctx); err != nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: err.Error(),
			Details: map[string]interface{}{"backend": h.Backend},
		}
	}
	return CheckStatus{
		Status: "healthy",
		Details: map[string]interface{}{
			"backend":    h.Backend,
			"latency_ms": time.Since(start).Milliseconds(),
		},
	}
}

// ReadyHandler answers readiness probes. Ready means the store accepts reads
// and writes, so a fresh pod does not receive traffic before its backend is up.
type ReadyHandler struct {
	Store repository.KVStore
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Store == nil {
		http.Error(w, "store not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.Store.Ping(ctx); err != nil {
		http.Error(w, "store not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		slog.Error("ready: failed to write response", slog.Any("error", err))
	}
}

// LiveHandler answers liveness probes with a plain 200.
type LiveHandler struct{}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		slog.Error("alive: failed to write response", slog.Any("error", err))
	}
}
