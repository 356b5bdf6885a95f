package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("ENV_STR", "value")

	if got := GetEnvString("ENV_STR", "fallback"); got != "value" {
		t.Errorf("GetEnvString(set) = %q, want %q", got, "value")
	}
	if got := GetEnvString("ENV_STR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnvString(unset) = %q, want %q", got, "fallback")
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{"valid", "8080", 8080},
		{"unset", "", 3000},
		{"garbage", "eighty", 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("ENV_INT", tt.envValue)
			}
			if got := GetEnvInt("ENV_INT", 3000); got != tt.want {
				t.Errorf("GetEnvInt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		envValue string
		want     bool
	}{
		{"true", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"maybe", true}, // invalid, default used
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("ENV_BOOL", tt.envValue)
			if got := GetEnvBool("ENV_BOOL", true); got != tt.want {
				t.Errorf("GetEnvBool(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("ENV_DUR", "90s")

	if got := GetEnvDuration("ENV_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("GetEnvDuration(set) = %v, want 90s", got)
	}
	if got := GetEnvDuration("ENV_DUR_MISSING", time.Minute); got != time.Minute {
		t.Errorf("GetEnvDuration(unset) = %v, want 1m", got)
	}

	t.Setenv("ENV_DUR_BAD", "soon")
	if got := GetEnvDuration("ENV_DUR_BAD", time.Minute); got != time.Minute {
		t.Errorf("GetEnvDuration(bad) = %v, want 1m", got)
	}
}

func TestGetEnvStringList(t *testing.T) {
	fallback := []string{"a"}

	tests := []struct {
		name     string
		envValue string
		want     []string
	}{
		{"single", "x", []string{"x"}},
		{"trims and splits", "x, y ,z", []string{"x", "y", "z"}},
		{"drops empties", "x,,y", []string{"x", "y"}},
		{"only separators", ",, ,", []string{"a"}},
		{"unset", "", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("ENV_LIST", tt.envValue)
			}
			got := GetEnvStringList("ENV_LIST", fallback)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GetEnvStringList mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
