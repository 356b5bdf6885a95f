package http

import (
	"context"
	"log/slog"
	"time"

	"tagfeed/internal/handler/http/middleware"
	"tagfeed/pkg/config"
)

// DefaultCleanupInterval is used when RATELIMIT_CLEANUP_INTERVAL is unset.
const DefaultCleanupInterval = 5 * time.Minute

// StartRateLimitCleanup runs periodic cleanup of the rate limiter's
// per-IP state until ctx is cancelled. Without it, every IP that ever
// hit the API stays in memory for the life of the process.
func StartRateLimitCleanup(ctx context.Context, limiter *middleware.RateLimiter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped")
			return

		case <-ticker.C:
			limiter.CleanupExpired()
			slog.Debug("rate limit cleanup completed")
		}
	}
}

// LoadCleanupInterval reads RATELIMIT_CLEANUP_INTERVAL from the environment,
// falling back to the default on absence or parse failure.
func LoadCleanupInterval() time.Duration {
	return config.GetEnvDuration("RATELIMIT_CLEANUP_INTERVAL", DefaultCleanupInterval)
}
