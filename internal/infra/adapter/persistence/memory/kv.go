// Package memory provides an in-process implementation of the key-value
// store. It is the default backend for development and single-instance
// deployments where cache state does not need to survive restarts.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"tagfeed/internal/repository"
)

// janitorInterval is how often expired entries are swept.
const janitorInterval = 1 * time.Minute

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// KV is an in-memory KVStore with per-entry TTL and a background janitor
// that sweeps expired entries. Safe for concurrent use.
type KV struct {
	mu      sync.RWMutex
	entries map[string]entry

	stop     chan struct{}
	stopOnce sync.Once

	// now is swappable for tests.
	now func() time.Time
}

// NewKV creates an in-memory store and starts its janitor goroutine.
// Call Close to stop the janitor.
func NewKV() *KV {
	kv := &KV{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go kv.janitor()
	return kv
}

// Get implements repository.KVStore.
func (kv *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	kv.mu.RLock()
	e, ok := kv.entries[key]
	kv.mu.RUnlock()

	if !ok || e.expired(kv.now()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Put implements repository.KVStore.
func (kv *KV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = kv.now().Add(ttl)
	}

	// Copy so callers may reuse their buffer.
	v := make([]byte, len(value))
	copy(v, value)

	kv.mu.Lock()
	kv.entries[key] = entry{value: v, expiresAt: expiresAt}
	kv.mu.Unlock()
	return nil
}

// Delete implements repository.KVStore.
func (kv *KV) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	delete(kv.entries, key)
	kv.mu.Unlock()
	return nil
}

// List implements repository.KVStore.
func (kv *KV) List(_ context.Context, prefix string) ([]string, error) {
	now := kv.now()

	kv.mu.RLock()
	defer kv.mu.RUnlock()

	keys := make([]string, 0, len(kv.entries))
	for k, e := range kv.entries {
		if strings.HasPrefix(k, prefix) && !e.expired(now) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Ping implements repository.KVStore. The in-memory store is always reachable.
func (kv *KV) Ping(_ context.Context) error {
	return nil
}

// Close stops the janitor goroutine. The store remains usable afterwards,
// but expired entries are only reclaimed lazily on read.
func (kv *KV) Close() error {
	kv.stopOnce.Do(func() { close(kv.stop) })
	return nil
}

// Len returns the number of stored entries, including not-yet-swept
// expired ones. Exposed for tests and health reporting.
func (kv *KV) Len() int {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return len(kv.entries)
}

func (kv *KV) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			kv.sweep()
		case <-kv.stop:
			return
		}
	}
}

func (kv *KV) sweep() {
	now := kv.now()
	kv.mu.Lock()
	for k, e := range kv.entries {
		if e.expired(now) {
			delete(kv.entries, k)
		}
	}
	kv.mu.Unlock()
}

var _ repository.KVStore = (*KV)(nil)
