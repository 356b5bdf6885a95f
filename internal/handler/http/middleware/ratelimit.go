package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a sliding-window rate limiter keyed by client IP.
// IP extraction is pluggable so deployments behind a trusted reverse
// proxy can honor forwarding headers without opening a spoofing hole.
type RateLimiter struct {
	limit       int
	window      time.Duration
	ipExtractor IPExtractor

	mu       sync.RWMutex
	requests map[string][]time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per IP
// within window.
func NewRateLimiter(limit int, window time.Duration, ipExtractor IPExtractor) *RateLimiter {
	return &RateLimiter{
		limit:       limit,
		window:      window,
		ipExtractor: ipExtractor,
		requests:    make(map[string][]time.Time),
	}
}

// Middleware enforces the rate limit, returning 429 when an IP exceeds it.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, ok := rl.clientIP(w, r)
		if !ok {
			return
		}

		if !rl.allow(ip) {
			slog.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
				slog.Int("limit", rl.limit),
				slog.Duration("window", rl.window),
			)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the key to limit on. Extraction failure falls back to
// RemoteAddr rather than rejecting the request; only an unusable
// RemoteAddr writes a 500 and reports false.
func (rl *RateLimiter) clientIP(w http.ResponseWriter, r *http.Request) (string, bool) {
	ip, err := rl.ipExtractor.ExtractIP(r)
	if err == nil {
		return ip, true
	}

	slog.Warn("rate limiter: IP extraction failed, using RemoteAddr fallback",
		slog.String("error", err.Error()),
		slog.String("remote_addr", r.RemoteAddr),
	)
	ip, err = extractIPFromAddr(r.RemoteAddr)
	if err != nil {
		slog.Error("rate limiter: RemoteAddr extraction failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return "", false
	}
	return ip, true
}

// pruneBefore returns the timestamps still inside the window.
func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	var live []time.Time
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	return live
}

// allow drops timestamps that slid out of the window, then admits the
// request if the remaining count is below the limit.
func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	live := pruneBefore(rl.requests[ip], now.Add(-rl.window))
	if len(live) >= rl.limit {
		rl.requests[ip] = live
		return false
	}

	rl.requests[ip] = append(live, now)
	return true
}

// CleanupExpired removes IPs whose every timestamp is outside the window.
// Call it periodically so idle IPs do not accumulate in the map.
func (rl *RateLimiter) CleanupExpired() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, timestamps := range rl.requests {
		live := pruneBefore(timestamps, cutoff)
		if len(live) == 0 {
			delete(rl.requests, ip)
			continue
		}
		rl.requests[ip] = live
	}

	slog.Debug("rate limiter: cleanup completed",
		slog.Int("active_ips", len(rl.requests)),
	)
}
