package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tagfeed/internal/domain/entity"
	"tagfeed/internal/repository"
)

const (
	// FeedTTL is the lifetime of a feed cache entry. Feeds refresh often,
	// so an hour keeps items reasonably fresh without refetching on every
	// request.
	FeedTTL = time.Hour

	feedKeyPrefix = "feed:"
)

// FeedCache stores normalized feed snapshots keyed by feed URL.
type FeedCache struct {
	store repository.KVStore
	ttl   time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewFeedCache returns a FeedCache over the given store with the default TTL.
func NewFeedCache(store repository.KVStore) *FeedCache {
	return &FeedCache{store: store, ttl: FeedTTL, now: time.Now}
}

// Get returns the cached snapshot for url, or ok=false on a miss.
// A snapshot that fails to decode is treated as a miss and evicted.
func (c *FeedCache) Get(ctx context.Context, url string) (*entity.FeedCacheEntry, bool, error) {
	raw, ok, err := c.store.Get(ctx, feedKeyPrefix+url)
	if err != nil {
		return nil, false, fmt.Errorf("FeedCache.Get: Get: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var entry entity.FeedCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = c.store.Delete(ctx, feedKeyPrefix+url)
		return nil, false, nil
	}
	return &entry, true, nil
}

// Put stores items as the snapshot for url, replacing any existing entry
// and resetting its TTL.
func (c *FeedCache) Put(ctx context.Context, url string, items []entity.Item) error {
	entry := entity.FeedCacheEntry{
		Items:     items,
		CreatedAt: c.now().UTC(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("FeedCache.Put: Marshal: %w", err)
	}
	if err := c.store.Put(ctx, feedKeyPrefix+url, raw, c.ttl); err != nil {
		return fmt.Errorf("FeedCache.Put: Put: %w", err)
	}
	return nil
}

// Delete removes the snapshot for url. Deleting an absent url is not an error.
func (c *FeedCache) Delete(ctx context.Context, url string) error {
	if err := c.store.Delete(ctx, feedKeyPrefix+url); err != nil {
		return fmt.Errorf("FeedCache.Delete: Delete: %w", err)
	}
	return nil
}

// All returns every cached snapshot keyed by feed URL. Entries that expire
// or fail to decode between the key scan and the read are skipped; the
// reconciler only needs the snapshots that are still live.
func (c *FeedCache) All(ctx context.Context) (map[string]entity.FeedCacheEntry, error) {
	keys, err := c.store.List(ctx, feedKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("FeedCache.All: List: %w", err)
	}

	snapshots := make(map[string]entity.FeedCacheEntry, len(keys))
	for _, key := range keys {
		url := strings.TrimPrefix(key, feedKeyPrefix)
		entry, ok, err := c.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("FeedCache.All: %w", err)
		}
		if !ok {
			continue
		}
		snapshots[url] = *entry
	}
	return snapshots, nil
}

// LiveFingerprints returns the set of content fingerprints across all
// cached snapshots. This is the live set handed to TagCache.Reconcile.
func (c *FeedCache) LiveFingerprints(ctx context.Context) (map[string]struct{}, error) {
	snapshots, err := c.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("FeedCache.LiveFingerprints: %w", err)
	}

	live := make(map[string]struct{})
	for _, snapshot := range snapshots {
		for i := range snapshot.Items {
			live[snapshot.Items[i].Fingerprint()] = struct{}{}
		}
	}
	return live, nil
}

// Purge deletes every snapshot. Used by full cache invalidation.
func (c *FeedCache) Purge(ctx context.Context) error {
	return purgePrefix(ctx, c.store, feedKeyPrefix, "FeedCache.Purge")
}
