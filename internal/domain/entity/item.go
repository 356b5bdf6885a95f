// Package entity defines the core domain entities for the feed tagging system.
// It contains the feed item model, its content fingerprint, and the cache entry
// types persisted in the key-value store.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Item represents a single normalized feed item.
// Tags stay empty until the enrichment pipeline has classified the item;
// their order is the classifier's relevance order.
type Item struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Link          string              `json:"link"`
	Source        string              `json:"source"`
	Tags          []string            `json:"tags"`
	Subcategories map[string][]string `json:"subcategories,omitempty"`
}

// Fingerprint returns the content fingerprint of the item: the lowercase
// hex SHA-256 digest of title concatenated with description. Two items with
// identical title and description share a fingerprint regardless of link or
// source, so classification cost is paid at most once per distinct content.
func (i *Item) Fingerprint() string {
	return Fingerprint(i.Title, i.Description)
}

// Fingerprint computes the content fingerprint for the given title and
// description. It is a pure function and the sole key into the tag cache.
func Fingerprint(title, description string) string {
	sum := sha256.Sum256([]byte(title + description))
	return hex.EncodeToString(sum[:])
}

// TagCacheEntry is the value stored under a tags:<fingerprint> key.
type TagCacheEntry struct {
	Tags          []string            `json:"tags"`
	Subcategories map[string][]string `json:"subcategories,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// FeedCacheEntry is the value stored under a feed:<url> key.
type FeedCacheEntry struct {
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	// DefaultTitle is used when a feed item carries no title element.
	DefaultTitle = "No Title"

	// DefaultLink is used when a feed item carries no link element.
	DefaultLink = "#"
)
