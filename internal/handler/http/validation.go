package http

import (
	"net/http"
)

// InputValidation returns middleware that rejects oversized request inputs
// before they reach a handler. Feed URLs arrive in the query string, so the
// query gets its own cap alongside the path and body limits.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Path length limit (2KB)
			if len(r.URL.Path) > 2048 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestURITooLong)
				_, _ = w.Write([]byte(`{"error":"URI too long"}`))
				return
			}

			// Query string limit (8KB); feed URLs are long but not that long
			if len(r.URL.RawQuery) > 8192 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestURITooLong)
				_, _ = w.Write([]byte(`{"error":"query string too long"}`))
				return
			}

			// Body size limit (1MB); no endpoint accepts a large payload
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

			next.ServeHTTP(w, r)
		})
	}
}
