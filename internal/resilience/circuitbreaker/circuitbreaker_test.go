package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

// fastConfig trips after three straight failures and recovers quickly so
// tests stay fast.
func fastConfig() Config {
	return Config{
		Name:             "test",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 1.0,
		MinRequests:      3,
	}
}

func TestExecute_PassesThroughResult(t *testing.T) {
	cb := New(fastConfig())

	got, err := cb.Execute(func() (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.(string) != "ok" {
		t.Errorf("Execute() = %v, want ok", got)
	}
}

func TestExecute_PassesThroughError(t *testing.T) {
	cb := New(fastConfig())
	boom := errors.New("boom")

	if _, err := cb.Execute(func() (interface{}, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want %v", err, boom)
	}
}

func TestBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	cb := New(fastConfig())

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, errors.New("down")
		})
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	_, err := cb.Execute(func() (interface{}, error) {
		t.Error("function must not run while the breaker is open")
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Execute() error = %v, want ErrOpenState", err)
	}
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(fastConfig())

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, errors.New("down")
		})
	}

	time.Sleep(80 * time.Millisecond)

	if _, err := cb.Execute(func() (interface{}, error) { return "back", nil }); err != nil {
		t.Fatalf("Execute() after timeout error = %v", err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed after successful probe", cb.State())
	}
}

func TestBreaker_StaysClosedBelowMinRequests(t *testing.T) {
	cb := New(fastConfig())

	// Two failures are below the three-sample minimum.
	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, errors.New("down")
		})
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed below the sample minimum", cb.State())
	}
}

func TestPerDependencyConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "claude", cfg: ClaudeAPIConfig()},
		{name: "openai", cfg: OpenAIAPIConfig()},
		{name: "feed", cfg: FeedFetchConfig()},
		{name: "database", cfg: DBConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.Name == "" {
				t.Error("config has no name")
			}
			if tt.cfg.FailureThreshold <= 0 || tt.cfg.FailureThreshold > 1 {
				t.Errorf("FailureThreshold = %v, want (0, 1]", tt.cfg.FailureThreshold)
			}
			if tt.cfg.MinRequests == 0 {
				t.Error("MinRequests = 0, breaker would trip on the first failure")
			}
			if cb := New(tt.cfg); cb.Name() != tt.cfg.Name {
				t.Errorf("Name() = %q, want %q", cb.Name(), tt.cfg.Name)
			}
		})
	}
}
