// Package circuitbreaker wraps github.com/sony/gobreaker so callers that hit
// flaky dependencies (the classifier APIs, feed origins, the database) stop
// hammering them once the failure rate climbs.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config tunes one breaker. The zero value is not usable; start from one of
// the per-dependency constructors below.
type Config struct {
	// Name labels the breaker in logs.
	Name string

	// MaxRequests caps probe traffic while half-open.
	MaxRequests uint32

	// Interval resets the rolling counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the breaker.
	FailureThreshold float64

	// MinRequests is the sample size required before the ratio is meaningful.
	MinRequests uint32
}

// ClaudeAPIConfig tunes a breaker for the Anthropic classification calls.
func ClaudeAPIConfig() Config {
	return Config{
		Name:             "claude-api",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// OpenAIAPIConfig tunes a breaker for the OpenAI classification calls.
func OpenAIAPIConfig() Config {
	return Config{
		Name:             "openai-api",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// FeedFetchConfig tunes a breaker for feed origins. Origins flake more than
// the APIs do, so the threshold and sample size are both higher.
func FeedFetchConfig() Config {
	return Config{
		Name:             "feed-fetch",
		MaxRequests:      5,
		Interval:         60 * time.Second,
		Timeout:          120 * time.Second,
		FailureThreshold: 0.7,
		MinRequests:      10,
	}
}

// CircuitBreaker is a thin wrapper over gobreaker that logs state changes.
type CircuitBreaker struct {
	inner *gobreaker.CircuitBreaker
	name  string
}

// New builds a breaker from cfg. State transitions are logged at warn level
// so an open circuit is visible without metrics.
func New(cfg Config) *CircuitBreaker {
	inner := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &CircuitBreaker{inner: inner, name: cfg.Name}
}

// Execute runs fn through the breaker. While open it fails fast with
// gobreaker.ErrOpenState.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.inner.Execute(fn)
}

// State reports the breaker's current state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.inner.State()
}

// Name returns the breaker's configured name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
