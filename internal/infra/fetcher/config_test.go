package fetcher_test

import (
	"testing"
	"time"

	"tagfeed/internal/infra/fetcher"
)

func TestDefaultConfig_Disabled(t *testing.T) {
	cfg := fetcher.DefaultConfig()
	if cfg.Enabled {
		t.Error("DefaultConfig().Enabled = true, want content fetching off by default")
	}
	if !cfg.DenyPrivateIPs {
		t.Error("DefaultConfig().DenyPrivateIPs = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fetcher.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *fetcher.Config) {}, wantErr: false},
		{name: "zero threshold", mutate: func(c *fetcher.Config) { c.Threshold = 0 }, wantErr: false},
		{name: "negative threshold", mutate: func(c *fetcher.Config) { c.Threshold = -1 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *fetcher.Config) { c.Timeout = 0 }, wantErr: true},
		{name: "body size under 1KB", mutate: func(c *fetcher.Config) { c.MaxBodySize = 512 }, wantErr: true},
		{name: "body size over 100MB", mutate: func(c *fetcher.Config) { c.MaxBodySize = 200 * 1024 * 1024 }, wantErr: true},
		{name: "negative redirects", mutate: func(c *fetcher.Config) { c.MaxRedirects = -1 }, wantErr: true},
		{name: "too many redirects", mutate: func(c *fetcher.Config) { c.MaxRedirects = 11 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONTENT_FETCH_ENABLED", "true")
	t.Setenv("CONTENT_FETCH_THRESHOLD", "500")
	t.Setenv("CONTENT_FETCH_TIMEOUT", "5s")
	t.Setenv("CONTENT_FETCH_MAX_REDIRECTS", "2")

	cfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if !cfg.Enabled {
		t.Error("Enabled = false, want true")
	}
	if cfg.Threshold != 500 {
		t.Errorf("Threshold = %d, want 500", cfg.Threshold)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.MaxRedirects != 2 {
		t.Errorf("MaxRedirects = %d, want 2", cfg.MaxRedirects)
	}
}

func TestLoadConfigFromEnv_UnparsableFallsBack(t *testing.T) {
	t.Setenv("CONTENT_FETCH_THRESHOLD", "lots")

	cfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Threshold != fetcher.DefaultConfig().Threshold {
		t.Errorf("Threshold = %d, want default %d", cfg.Threshold, fetcher.DefaultConfig().Threshold)
	}
}

func TestLoadConfigFromEnv_InvalidCombination(t *testing.T) {
	// Parsable but out of range: GetEnvInt accepts it, Validate rejects it.
	t.Setenv("CONTENT_FETCH_MAX_REDIRECTS", "50")

	if _, err := fetcher.LoadConfigFromEnv(); err == nil {
		t.Error("LoadConfigFromEnv() = nil error, want validation failure")
	}
}
