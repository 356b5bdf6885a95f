// Package rss implements the request-path use cases behind the HTTP API:
// serving a feed (with cache), the tags-only view, and cache invalidation.
// Tag enrichment itself is delegated to the enrich service and always runs
// detached from the request.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tagfeed/internal/domain/entity"
	"tagfeed/internal/observability/metrics"
)

// Fetcher retrieves and normalizes a feed from its source URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]entity.Item, error)
}

// FeedStore is the feed cache surface the request path needs.
type FeedStore interface {
	Get(ctx context.Context, url string) (*entity.FeedCacheEntry, bool, error)
	Put(ctx context.Context, url string, items []entity.Item) error
	Delete(ctx context.Context, url string) error
	Purge(ctx context.Context) error
}

// TagStore is the tag cache surface the request path needs.
type TagStore interface {
	Purge(ctx context.Context) error
}

// Enricher runs a detached tag enrichment pass for a feed snapshot.
type Enricher interface {
	EnrichAsync(ctx context.Context, url string, items []entity.Item)
}

// Config holds request-path behavior toggles.
type Config struct {
	// DenyPrivateIPs rejects feed URLs resolving to private address space.
	DenyPrivateIPs bool
}

// Service orchestrates feed serving over the caches.
type Service struct {
	Fetcher  Fetcher
	Feeds    FeedStore
	TagCache TagStore
	Enricher Enricher
	Config   Config
}

// NewService creates a new rss Service with the provided dependencies.
func NewService(fetcher Fetcher, feeds FeedStore, tags TagStore, enricher Enricher, cfg Config) *Service {
	return &Service{
		Fetcher:  fetcher,
		Feeds:    feeds,
		TagCache: tags,
		Enricher: enricher,
		Config:   cfg,
	}
}

// Get returns the items for the feed at url, from cache when fresh,
// otherwise fetched and cached. Either way an enrichment pass is kicked off
// in the background; the response never waits for tags. Items carry
// whatever tags earlier passes produced.
func (s *Service) Get(ctx context.Context, url string) ([]entity.Item, error) {
	if err := ValidateURL(url, s.Config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	// A cache read failure degrades to a fetch, never a request failure.
	entry, ok, err := s.Feeds.Get(ctx, url)
	if err != nil {
		slog.Warn("feed cache read failed, fetching",
			slog.String("url", url),
			slog.Any("error", err))
	}
	if ok {
		slog.Debug("feed cache hit",
			slog.String("url", url),
			slog.Int("items", len(entry.Items)))
		s.Enricher.EnrichAsync(ctx, url, entry.Items)
		return entry.Items, nil
	}

	start := time.Now()
	items, err := s.Fetcher.Fetch(ctx, url)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordFeedFetch(false, duration, 0)
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	metrics.RecordFeedFetch(true, duration, len(items))

	if err := s.Feeds.Put(ctx, url, items); err != nil {
		slog.Warn("failed to cache feed snapshot",
			slog.String("url", url),
			slog.Any("error", err))
	}

	s.Enricher.EnrichAsync(ctx, url, items)
	return items, nil
}

// TagsOnly returns the cached snapshot for url without fetching the feed.
// A cache miss yields an empty slice; the caller gets tags only once a
// regular Get has populated and enriched the cache.
func (s *Service) TagsOnly(ctx context.Context, url string) ([]entity.Item, error) {
	if err := ValidateURL(url, s.Config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	entry, ok, err := s.Feeds.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("read feed cache: %w", err)
	}
	if !ok {
		return []entity.Item{}, nil
	}
	return entry.Items, nil
}

// Invalidate removes the named feed's snapshot, then wipes both caches
// completely. The next request for any feed refetches and reclassifies
// from scratch. The named delete runs first so the entry is gone even if
// the wider purge fails halfway.
func (s *Service) Invalidate(ctx context.Context, url string) error {
	if err := ValidateURL(url, s.Config.DenyPrivateIPs); err != nil {
		return err
	}
	if err := s.Feeds.Delete(ctx, url); err != nil {
		return fmt.Errorf("invalidate feed: %w", err)
	}
	if err := s.Feeds.Purge(ctx); err != nil {
		return fmt.Errorf("purge feed cache: %w", err)
	}
	if err := s.TagCache.Purge(ctx); err != nil {
		return fmt.Errorf("purge tag cache: %w", err)
	}
	metrics.RecordCacheInvalidation()
	slog.Info("caches invalidated", slog.String("url", url))
	return nil
}
