// Package repository defines the persistence interfaces consumed by the
// cache and use case layers. Concrete implementations live under
// internal/infra/adapter/persistence.
package repository

import (
	"context"
	"time"
)

// KVStore is the key-value capability backing the feed and tag caches.
// Implementations must treat expired entries as absent.
//
// Concurrent writers to the same key follow last-write-wins semantics;
// the caches rebuild entries idempotently from the source feed and the
// classifier, so no client-side locking is required.
type KVStore interface {
	// Get returns the value for key, or ok=false if the key is absent
	// or its TTL has elapsed.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put stores value under key, replacing any existing entry and
	// resetting its TTL. A zero ttl stores the entry without expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all live keys with the given prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
