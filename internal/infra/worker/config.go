// Package worker holds the cache-warming worker: its configuration, the
// health endpoints its container probes hit, and its Prometheus metrics.
// The worker re-fetches a configured list of feeds on a cron schedule so
// the feed and tag caches stay populated without waiting for client
// traffic.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"tagfeed/internal/pkg/config"
)

// WorkerConfig controls the warm job schedule and its operational limits.
// Every field has a default and is loaded fail-open: an invalid
// environment value degrades to the default with a warning instead of
// stopping the worker.
type WorkerConfig struct {
	// WarmSchedule is the cron expression for warm runs
	// ("minute hour day month weekday").
	WarmSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	Timezone string

	// FeedsFile is the path to the YAML file listing feed URLs to warm.
	FeedsFile string

	// WarmConcurrency bounds how many feeds are warmed in parallel.
	WarmConcurrency int

	// WarmTimeout caps a single warm run across all feeds.
	WarmTimeout time.Duration

	// HealthPort is the port of the worker's health and metrics server.
	HealthPort int
}

// DefaultConfig returns the production defaults: warm every five minutes
// (the cadence clients used to poll at), in UTC, four feeds at a time,
// with a four-minute ceiling so one run always finishes before the next.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		WarmSchedule:    "*/5 * * * *",
		Timezone:        "UTC",
		FeedsFile:       "feeds.yaml",
		WarmConcurrency: 4,
		WarmTimeout:     4 * time.Minute,
		HealthPort:      9091,
	}
}

// Validate checks every field and aggregates the failures so an operator
// sees all problems at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.WarmSchedule); err != nil {
		errs = append(errs, fmt.Errorf("warm schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.FeedsFile == "" {
		errs = append(errs, fmt.Errorf("feeds file: cannot be empty"))
	}
	if err := config.ValidateIntRange(c.WarmConcurrency, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("warm concurrency: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.WarmTimeout); err != nil {
		errs = append(errs, fmt.Errorf("warm timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv builds the worker configuration from environment
// variables, falling back to DefaultConfig per field on any parse or
// validation failure. Fallbacks are logged and counted in metrics; the
// returned config is always valid and the error is always nil.
//
// Environment variables:
//   - WARM_CRON: cron expression (default "*/5 * * * *")
//   - WORKER_TIMEZONE: IANA timezone (default "UTC")
//   - WORKER_FEEDS_FILE: path to the feed list YAML (default "feeds.yaml")
//   - WARM_MAX_CONCURRENT: integer 1-50 (default 4)
//   - WARM_TIMEOUT: duration between 10s and 1h (default 4m)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	note := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("WARM_CRON", cfg.WarmSchedule, config.ValidateCronSchedule)
	cfg.WarmSchedule = result.Value.(string)
	note("warm_cron", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	note("timezone", result)

	// Existence is checked when the list is read, not here: the file may
	// be mounted after the worker starts.
	cfg.FeedsFile = config.LoadEnvString("WORKER_FEEDS_FILE", cfg.FeedsFile)

	result = config.LoadEnvInt("WARM_MAX_CONCURRENT", cfg.WarmConcurrency, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.WarmConcurrency = result.Value.(int)
	note("warm_max_concurrent", result)

	result = config.LoadEnvDuration("WARM_TIMEOUT", cfg.WarmTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, time.Hour)
	})
	cfg.WarmTimeout = result.Value.(time.Duration)
	note("warm_timeout", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	note("health_port", result)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
