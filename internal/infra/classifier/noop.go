package classifier

import (
	"context"

	"tagfeed/internal/usecase/enrich"
)

// NoOp is a classifier that returns no tags for any article.
// This is useful for testing and development when no API key is configured;
// the keyword fallback still assigns taxonomy tags downstream.
type NoOp struct{}

// NewNoOp creates a new NoOp classifier.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// ClassifyBatch returns an empty verdict for every article.
func (n *NoOp) ClassifyBatch(_ context.Context, items []enrich.BatchInput) ([]enrich.ItemTags, error) {
	results := make([]enrich.ItemTags, 0, len(items))
	for _, item := range items {
		results = append(results, enrich.ItemTags{Title: item.Title, Tags: nil})
	}
	return results, nil
}
