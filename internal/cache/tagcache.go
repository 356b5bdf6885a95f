// Package cache implements the two persistent caches of the tagging system:
// the feed cache, keyed by feed URL, and the tag cache, keyed by content
// fingerprint. Both serialize their entries as JSON into a repository.KVStore
// so any backend (memory, SQLite, PostgreSQL) can carry them.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tagfeed/internal/domain/entity"
	"tagfeed/internal/repository"
)

const (
	// TagTTL is the lifetime of a tag cache entry. Tags are far more
	// expensive to produce than feed items, so they outlive feed entries
	// by a day.
	TagTTL = 24 * time.Hour

	tagKeyPrefix = "tags:"
)

// TagCache stores classification results keyed by content fingerprint.
type TagCache struct {
	store repository.KVStore
	ttl   time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewTagCache returns a TagCache over the given store with the default TTL.
func NewTagCache(store repository.KVStore) *TagCache {
	return &TagCache{store: store, ttl: TagTTL, now: time.Now}
}

// Lookup returns the cached entry for fingerprint, or ok=false on a miss.
// An entry that fails to decode is treated as a miss and evicted so the
// pipeline reclassifies the item instead of serving garbage.
func (c *TagCache) Lookup(ctx context.Context, fingerprint string) (*entity.TagCacheEntry, bool, error) {
	raw, ok, err := c.store.Get(ctx, tagKeyPrefix+fingerprint)
	if err != nil {
		return nil, false, fmt.Errorf("TagCache.Lookup: Get: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var entry entity.TagCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = c.store.Delete(ctx, tagKeyPrefix+fingerprint)
		return nil, false, nil
	}
	return &entry, true, nil
}

// Store persists tags and subcategories under the item's fingerprint,
// replacing any existing entry and resetting its TTL.
func (c *TagCache) Store(ctx context.Context, fingerprint string, tags []string, subcategories map[string][]string) error {
	entry := entity.TagCacheEntry{
		Tags:          tags,
		Subcategories: subcategories,
		CreatedAt:     c.now().UTC(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("TagCache.Store: Marshal: %w", err)
	}
	if err := c.store.Put(ctx, tagKeyPrefix+fingerprint, raw, c.ttl); err != nil {
		return fmt.Errorf("TagCache.Store: Put: %w", err)
	}
	return nil
}

// Reconcile removes every tag entry whose fingerprint is not in live.
// The live set is the union of fingerprints across all currently cached
// feeds; anything else is an orphan left behind by rotated feed content.
// Deletion is best effort: a failed delete is skipped, the scan continues,
// and the first failure is reported after the pass completes.
func (c *TagCache) Reconcile(ctx context.Context, live map[string]struct{}) (removed int, err error) {
	keys, err := c.store.List(ctx, tagKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("TagCache.Reconcile: List: %w", err)
	}

	var firstErr error
	for _, key := range keys {
		fingerprint := key[len(tagKeyPrefix):]
		if _, ok := live[fingerprint]; ok {
			continue
		}
		if err := c.store.Delete(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("TagCache.Reconcile: Delete %q: %w", key, err)
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

// Purge deletes every tag entry. Used by full cache invalidation.
func (c *TagCache) Purge(ctx context.Context) error {
	return purgePrefix(ctx, c.store, tagKeyPrefix, "TagCache.Purge")
}

func purgePrefix(ctx context.Context, store repository.KVStore, prefix, op string) error {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("%s: List: %w", op, err)
	}
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("%s: Delete %q: %w", op, key, err)
		}
	}
	return nil
}
