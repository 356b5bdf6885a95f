// Package middleware provides reusable HTTP middleware: CORS handling and
// IP-based rate limiting with pluggable client IP extraction.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds the CORS policy applied by the CORS middleware.
// The API serves public, read-only feed data, so the default policy
// allows any origin.
type CORSConfig struct {
	// AllowedMethods lists the HTTP methods permitted in CORS requests.
	AllowedMethods []string

	// AllowedHeaders lists the request headers permitted in CORS requests.
	AllowedHeaders []string

	// MaxAge is how long, in seconds, browsers may cache preflight results.
	MaxAge int
}

// DefaultCORSConfig returns the permissive policy used by the feed API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodOptions,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}
}

// CORS returns middleware that answers preflight requests and sets CORS
// headers on every cross-origin response.
//
// Behavior:
//   - Requests without an Origin header pass through untouched.
//   - Preflight OPTIONS requests get the full header set and 204,
//     without reaching the next handler.
//   - All other requests get Access-Control-Allow-Origin: * and proceed.
//
// Credentials are deliberately not allowed: the wildcard origin and
// Access-Control-Allow-Credentials are mutually exclusive, and no endpoint
// uses cookies or auth headers.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Origin") == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", "*")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
