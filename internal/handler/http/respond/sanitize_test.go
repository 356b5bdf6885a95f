package respond

import (
	"errors"
	"testing"
)

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "anthropic key masked",
			err:  errors.New("anthropic: 401 sk-ant-REDACTED"),
			want: "anthropic: 401 sk-ant-****",
		},
		{
			name: "openai key masked",
			err:  errors.New("openai: 401 sk-1234567890abcdefgh"),
			want: "openai: 401 sk-****",
		},
		{
			name: "both keys in one message",
			err:  errors.New("tried sk-ant-abc123def456 then sk-1234567890abcdefgh"),
			want: "tried sk-ant-**** then sk-****",
		},
		{
			name: "dsn password masked",
			err:  errors.New("dial tcp: postgres://tagfeed:hunter2@db:5432/tagfeed"),
			want: "dial tcp: postgres://tagfeed:****@db:5432/tagfeed",
		},
		{
			name: "plain message untouched",
			err:  errors.New("feed parse failed"),
			want: "feed parse failed",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeError(tt.err); got != tt.want {
				t.Errorf("SanitizeError() = %q, want %q", got, tt.want)
			}
		})
	}
}
