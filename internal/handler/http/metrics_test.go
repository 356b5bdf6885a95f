package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tagfeed/internal/observability/metrics"
)

func TestMetricsMiddleware_RecordsRequests(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()
	metrics.HTTPRequestDuration.Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/rss?url=https://go.dev/feed.xml", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	count := testutil.CollectAndCount(metrics.HTTPRequestsTotal)
	if count == 0 {
		t.Error("Expected request metric to be recorded, got 0")
	}
}

func TestMetricsMiddleware_UnknownPathsShareLabel(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	// Probing paths must not each mint a new label
	probes := []string{"/wp-admin", "/.env", "/admin/login", "/phpinfo.php", "/etc/passwd"}
	for _, path := range probes {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	count := testutil.CollectAndCount(metrics.HTTPRequestsTotal)
	if count != 1 {
		t.Errorf("Expected 1 label series for %d probe paths, got %d", len(probes), count)
	}
}

func TestMetricsMiddleware_StatusCodes(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	statuses := []int{http.StatusOK, http.StatusBadRequest, http.StatusBadGateway}
	for _, status := range statuses {
		status := status
		handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		req := httptest.NewRequest(http.MethodGet, "/rss", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != status {
			t.Errorf("Expected status %d, got %d", status, w.Code)
		}
	}

	count := testutil.CollectAndCount(metrics.HTTPRequestsTotal)
	if count != len(statuses) {
		t.Errorf("Expected %d label series, got %d", len(statuses), count)
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	sr.WriteHeader(http.StatusCreated)
	if _, err := sr.Write([]byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := sr.Write([]byte(" world")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if sr.status != http.StatusCreated {
		t.Errorf("status = %d, want %d", sr.status, http.StatusCreated)
	}
	if sr.bytes != len("hello world") {
		t.Errorf("bytes = %d, want %d", sr.bytes, len("hello world"))
	}
}

func TestMetricsHandler(t *testing.T) {
	handler := MetricsHandler()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}

	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("Expected scrape output to contain runtime metrics")
	}
}
