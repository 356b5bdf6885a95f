package rss

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tagfeed/internal/domain/entity"
)

type stubFetcher struct {
	items []entity.Item
	err   error
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) ([]entity.Item, error) {
	s.calls++
	return s.items, s.err
}

type stubFeedStore struct {
	mu        sync.Mutex
	snapshots map[string][]entity.Item
	getErr    error
	purged    bool
}

func newStubFeedStore() *stubFeedStore {
	return &stubFeedStore{snapshots: make(map[string][]entity.Item)}
}

func (s *stubFeedStore) Get(_ context.Context, url string) (*entity.FeedCacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	items, ok := s.snapshots[url]
	if !ok {
		return nil, false, nil
	}
	return &entity.FeedCacheEntry{Items: items}, true, nil
}

func (s *stubFeedStore) Put(_ context.Context, url string, items []entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[url] = items
	return nil
}

func (s *stubFeedStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, url)
	return nil
}

func (s *stubFeedStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = make(map[string][]entity.Item)
	s.purged = true
	return nil
}

type stubTagStore struct {
	purged bool
}

func (s *stubTagStore) Purge(_ context.Context) error {
	s.purged = true
	return nil
}

type stubEnricher struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubEnricher) EnrichAsync(_ context.Context, url string, _ []entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, url)
}

func (s *stubEnricher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestService(fetcher *stubFetcher, feeds *stubFeedStore, tags *stubTagStore, enricher *stubEnricher) *Service {
	return NewService(fetcher, feeds, tags, enricher, Config{DenyPrivateIPs: false})
}

func TestGet_CacheMissFetchesAndCaches(t *testing.T) {
	items := []entity.Item{{Title: "A", Description: "a", Link: "https://x.example/a", Source: "X"}}
	fetcher := &stubFetcher{items: items}
	feeds := newStubFeedStore()
	enricher := &stubEnricher{}

	svc := newTestService(fetcher, feeds, &stubTagStore{}, enricher)
	got, err := svc.Get(context.Background(), "https://x.example/rss")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if diff := cmp.Diff(items, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
	if _, ok := feeds.snapshots["https://x.example/rss"]; !ok {
		t.Error("snapshot not cached")
	}
	if enricher.callCount() != 1 {
		t.Errorf("enrichment launches = %d, want 1", enricher.callCount())
	}
}

func TestGet_CacheHitSkipsFetch(t *testing.T) {
	cached := []entity.Item{{Title: "Cached", Tags: []string{"Go"}}}
	fetcher := &stubFetcher{err: errors.New("must not fetch")}
	feeds := newStubFeedStore()
	feeds.snapshots["https://x.example/rss"] = cached
	enricher := &stubEnricher{}

	svc := newTestService(fetcher, feeds, &stubTagStore{}, enricher)
	got, err := svc.Get(context.Background(), "https://x.example/rss")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if diff := cmp.Diff(cached, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch calls = %d, want 0", fetcher.calls)
	}
	if enricher.callCount() != 1 {
		t.Errorf("enrichment launches = %d, want 1", enricher.callCount())
	}
}

func TestGet_FetchErrorWrapped(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	svc := newTestService(fetcher, newStubFeedStore(), &stubTagStore{}, &stubEnricher{})

	_, err := svc.Get(context.Background(), "https://down.example/rss")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Get() error = %v, want ErrFetchFailed", err)
	}
}

func TestGet_RejectsInvalidURL(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := newTestService(fetcher, newStubFeedStore(), &stubTagStore{}, &stubEnricher{})

	for _, url := range []string{"", "ftp://example.com/feed", "not a url at all", "http://"} {
		if _, err := svc.Get(context.Background(), url); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidURL", url, err)
		}
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch calls = %d, want 0", fetcher.calls)
	}
}

func TestTagsOnly_MissReturnsEmpty(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("must not fetch")}
	svc := newTestService(fetcher, newStubFeedStore(), &stubTagStore{}, &stubEnricher{})

	got, err := svc.TagsOnly(context.Background(), "https://x.example/rss")
	if err != nil {
		t.Fatalf("TagsOnly() error = %v", err)
	}
	if got == nil {
		t.Fatal("TagsOnly() = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch calls = %d, want 0", fetcher.calls)
	}
}

func TestTagsOnly_HitReturnsSnapshot(t *testing.T) {
	cached := []entity.Item{{Title: "Cached", Tags: []string{"Go", "News"}}}
	feeds := newStubFeedStore()
	feeds.snapshots["https://x.example/rss"] = cached

	svc := newTestService(&stubFetcher{}, feeds, &stubTagStore{}, &stubEnricher{})
	got, err := svc.TagsOnly(context.Background(), "https://x.example/rss")
	if err != nil {
		t.Fatalf("TagsOnly() error = %v", err)
	}
	if diff := cmp.Diff(cached, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidate_WipesBothCaches(t *testing.T) {
	feeds := newStubFeedStore()
	feeds.snapshots["https://x.example/rss"] = []entity.Item{{Title: "A"}}
	feeds.snapshots["https://y.example/rss"] = []entity.Item{{Title: "B"}}
	tags := &stubTagStore{}

	svc := newTestService(&stubFetcher{}, feeds, tags, &stubEnricher{})
	if err := svc.Invalidate(context.Background(), "https://x.example/rss"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	if len(feeds.snapshots) != 0 {
		t.Errorf("feed snapshots remaining = %d, want 0", len(feeds.snapshots))
	}
	if !feeds.purged {
		t.Error("feed cache not purged")
	}
	if !tags.purged {
		t.Error("tag cache not purged")
	}
}

func TestInvalidate_RejectsInvalidURL(t *testing.T) {
	feeds := newStubFeedStore()
	tags := &stubTagStore{}

	svc := newTestService(&stubFetcher{}, feeds, tags, &stubEnricher{})
	if err := svc.Invalidate(context.Background(), "ftp://x.example/rss"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("Invalidate() error = %v, want ErrInvalidURL", err)
	}
	if feeds.purged || tags.purged {
		t.Error("caches purged on rejected input")
	}
}
