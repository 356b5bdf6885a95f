package fetcher

import (
	"fmt"
	"time"

	"tagfeed/pkg/config"
)

// Config controls the optional page-content enhancement step. The feature is
// off unless CONTENT_FETCH_ENABLED is set: most feeds carry enough description
// text that fetching the article page is wasted work.
type Config struct {
	// Enabled toggles content fetching. When false the enhancer is never
	// constructed and classification runs on feed descriptions alone.
	Enabled bool

	// Threshold is the minimum description length in characters. Descriptions
	// at or above it are considered sufficient and the page is not fetched.
	Threshold int

	// Timeout bounds a single page fetch.
	Timeout time.Duration

	// MaxBodySize caps the response body in bytes. Enforced while reading,
	// not from the Content-Length header.
	MaxBodySize int64

	// MaxRedirects caps the redirect chain. Every hop is re-validated so a
	// public URL cannot redirect into private address space.
	MaxRedirects int

	// DenyPrivateIPs rejects URLs resolving to private, loopback, or
	// link-local addresses.
	DenyPrivateIPs bool
}

// DefaultConfig returns the content-fetch defaults with the feature disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		Threshold:      300,
		Timeout:        10 * time.Second,
		MaxBodySize:    5 * 1024 * 1024,
		MaxRedirects:   3,
		DenyPrivateIPs: true,
	}
}

// Validate checks bounds on the configuration values.
func (c *Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	minBody, maxBody := int64(1024), int64(100*1024*1024)
	if c.MaxBodySize < minBody || c.MaxBodySize > maxBody {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBody, maxBody, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfigFromEnv reads CONTENT_FETCH_* environment variables, falling back
// to defaults for anything unset or unparsable, then validates the result.
func LoadConfigFromEnv() (Config, error) {
	def := DefaultConfig()
	cfg := Config{
		Enabled:        config.GetEnvBool("CONTENT_FETCH_ENABLED", def.Enabled),
		Threshold:      config.GetEnvInt("CONTENT_FETCH_THRESHOLD", def.Threshold),
		Timeout:        config.GetEnvDuration("CONTENT_FETCH_TIMEOUT", def.Timeout),
		MaxBodySize:    int64(config.GetEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(def.MaxBodySize))),
		MaxRedirects:   config.GetEnvInt("CONTENT_FETCH_MAX_REDIRECTS", def.MaxRedirects),
		DenyPrivateIPs: config.GetEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", def.DenyPrivateIPs),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("content fetch configuration invalid: %w", err)
	}
	return cfg, nil
}
