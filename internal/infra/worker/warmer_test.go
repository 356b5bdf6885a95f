package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"tagfeed/internal/domain/entity"
)

type stubFeedWarmer struct {
	mu       sync.Mutex
	calls    []string
	failURLs map[string]bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *stubFeedWarmer) Get(ctx context.Context, url string) ([]entity.Item, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		max := s.maxSeen.Load()
		if cur <= max || s.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()

	if s.failURLs[url] {
		return nil, errors.New("fetch blew up")
	}
	return []entity.Item{{Title: "a", Link: "#"}}, nil
}

func newTestWarmer(svc FeedWarmer, concurrency int) *Warmer {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewWarmer(svc, logger, testMetrics, concurrency)
}

func TestWarmer_WarmsEveryFeed(t *testing.T) {
	stub := &stubFeedWarmer{}
	warmer := newTestWarmer(stub, 2)

	feeds := []string{
		"https://a.example/rss",
		"https://b.example/rss",
		"https://c.example/rss",
	}
	failed, err := warmer.Run(context.Background(), feeds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if len(stub.calls) != len(feeds) {
		t.Errorf("warmed %d feeds, want %d", len(stub.calls), len(feeds))
	}
}

func TestWarmer_FeedFailureDoesNotStopRun(t *testing.T) {
	stub := &stubFeedWarmer{failURLs: map[string]bool{"https://b.example/rss": true}}
	warmer := newTestWarmer(stub, 1)

	feeds := []string{
		"https://a.example/rss",
		"https://b.example/rss",
		"https://c.example/rss",
	}
	failed, err := warmer.Run(context.Background(), feeds)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if len(stub.calls) != len(feeds) {
		t.Errorf("warmed %d feeds, want all %d despite the failure", len(stub.calls), len(feeds))
	}
}

func TestWarmer_BoundsConcurrency(t *testing.T) {
	stub := &stubFeedWarmer{}
	warmer := newTestWarmer(stub, 2)

	feeds := make([]string, 20)
	for i := range feeds {
		feeds[i] = "https://example.org/feed/" + string(rune('a'+i))
	}

	if _, err := warmer.Run(context.Background(), feeds); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if max := stub.maxSeen.Load(); max > 2 {
		t.Errorf("observed %d concurrent fetches, limit is 2", max)
	}
}

func TestWarmer_CancelledContext(t *testing.T) {
	stub := &stubFeedWarmer{}
	warmer := newTestWarmer(stub, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := warmer.Run(ctx, []string{"https://a.example/rss"}); err == nil {
		t.Error("expected error from cancelled context")
	}
}
