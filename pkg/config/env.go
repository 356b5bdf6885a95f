// Package config reads typed values from environment variables with
// defaults. Unparseable values log a warning and fall back to the default
// rather than failing, so a bad variable degrades to documented behavior.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

func warnBadValue(key, value string, def any, err error) {
	slog.Warn("invalid environment variable, using default",
		slog.String("key", key),
		slog.String("value", value),
		slog.Any("default", def),
		slog.Any("error", err))
}

// GetEnvString returns the value for key, or defaultValue when the variable
// is unset or empty.
func GetEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvInt returns the value for key parsed as an integer.
func GetEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		warnBadValue(key, v, defaultValue, err)
		return defaultValue
	}
	return n
}

// GetEnvBool returns the value for key parsed with strconv.ParseBool, so
// "1"/"t"/"true" and "0"/"f"/"false" work in their usual casings.
func GetEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		warnBadValue(key, v, defaultValue, err)
		return defaultValue
	}
	return b
}

// GetEnvDuration returns the value for key parsed with time.ParseDuration
// ("30s", "5m", "1h30m").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		warnBadValue(key, v, defaultValue.String(), err)
		return defaultValue
	}
	return d
}

// GetEnvStringList returns the value for key split on commas, each element
// trimmed and empties dropped. A variable holding only separators yields
// defaultValue.
func GetEnvStringList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
