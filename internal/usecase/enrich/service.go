// Package enrich implements the asynchronous tag enrichment pipeline.
// It partitions feed items by tag cache state, classifies misses in batches
// through an AI classifier, post-processes the results against the keyword
// taxonomy, and persists both caches.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tagfeed/internal/domain/entity"
	"tagfeed/internal/observability/metrics"
	"tagfeed/internal/tagging"
)

const (
	// maxBatchSize is the number of articles sent to the classifier per call.
	maxBatchSize = 10

	// defaultPassDeadline bounds one enrichment pass. Batches not classified
	// by then stay untagged and are retried on the next pass.
	defaultPassDeadline = 5 * time.Minute

	// defaultBatchInterval is the minimum spacing between classifier calls.
	defaultBatchInterval = time.Second
)

// BatchInput is one article handed to the classifier.
type BatchInput struct {
	Title       string
	Description string
}

// ItemTags is the classifier's verdict for one article, matched back to
// inputs by title.
type ItemTags struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// Classifier generates raw tags for a batch of articles. Implementations
// may return fewer or more entries than inputs; the pipeline falls back to
// the keyword taxonomy for articles without a verdict.
type Classifier interface {
	ClassifyBatch(ctx context.Context, items []BatchInput) ([]ItemTags, error)
}

// ContentEnhancer optionally swaps a thin description for extracted page
// text before classification. Fingerprints are computed from the original
// description either way, so enhancement never changes cache identity.
type ContentEnhancer interface {
	EnhanceDescription(ctx context.Context, link, description string) string
}

// TagStore is the tag cache surface the pipeline needs.
type TagStore interface {
	Lookup(ctx context.Context, fingerprint string) (*entity.TagCacheEntry, bool, error)
	Store(ctx context.Context, fingerprint string, tags []string, subcategories map[string][]string) error
	Reconcile(ctx context.Context, live map[string]struct{}) (int, error)
}

// FeedStore is the feed cache surface the pipeline needs.
type FeedStore interface {
	Put(ctx context.Context, url string, items []entity.Item) error
	LiveFingerprints(ctx context.Context) (map[string]struct{}, error)
}

// Service runs enrichment passes over normalized feed snapshots.
type Service struct {
	Tags       TagStore
	Feeds      FeedStore
	Classifier Classifier
	Taxonomy   tagging.Taxonomy

	// Enhancer is optional; nil skips content enhancement entirely.
	Enhancer ContentEnhancer

	// PassDeadline bounds one enrichment pass. Adjustable until the first
	// pass runs.
	PassDeadline time.Duration

	// BatchInterval is the minimum spacing between classifier calls.
	// Adjustable until the first pass runs.
	BatchInterval time.Duration

	limiterOnce sync.Once
	limiter     *rate.Limiter
}

// NewService creates an enrichment service with the default 5 minute pass
// deadline and classifier throttle of one batch per second.
func NewService(tags TagStore, feeds FeedStore, cls Classifier, taxonomy tagging.Taxonomy) *Service {
	return &Service{
		Tags:          tags,
		Feeds:         feeds,
		Classifier:    cls,
		Taxonomy:      taxonomy,
		PassDeadline:  defaultPassDeadline,
		BatchInterval: defaultBatchInterval,
	}
}

// throttle builds the classifier rate limiter on first use, after any
// BatchInterval override has been applied.
func (s *Service) throttle() *rate.Limiter {
	s.limiterOnce.Do(func() {
		s.limiter = rate.NewLimiter(rate.Every(s.BatchInterval), 1)
	})
	return s.limiter
}

// pendingItem is one distinct fingerprint awaiting classification.
type pendingItem struct {
	fingerprint string
	title       string
	description string
	link        string
}

// EnrichFeed runs one enrichment pass for the feed at url over its
// normalized items. Cached fingerprints are reused without a classifier
// call; the rest are classified in batches with per-batch failure
// isolation. The tagged snapshot is always persisted, even when the pass
// deadline cuts classification short, in which case ErrDeadlineExceeded
// is returned after persisting.
func (s *Service) EnrichFeed(ctx context.Context, url string, items []entity.Item) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.PassDeadline)
	defer cancel()

	resolved, queue := s.partition(ctx, items)

	deadlineHit := false
	for i := 0; i < len(queue); i += maxBatchSize {
		if ctx.Err() != nil {
			deadlineHit = true
			break
		}
		if err := s.throttle().Wait(ctx); err != nil {
			deadlineHit = true
			break
		}
		s.classifyBatch(ctx, queue[i:min(i+maxBatchSize, len(queue))], resolved)
	}

	// Persist outside the pass deadline so a late pass still lands.
	persistCtx := context.WithoutCancel(ctx)

	tagged := applyTags(items, resolved)
	persistErr := s.Feeds.Put(persistCtx, url, tagged)
	if persistErr != nil {
		slog.Error("failed to persist enriched feed snapshot",
			slog.String("url", url),
			slog.Any("error", persistErr))
	}

	s.reconcile(persistCtx)

	duration := time.Since(start)
	outcome := "completed"
	switch {
	case persistErr != nil:
		outcome = "error"
	case deadlineHit:
		outcome = "deadline"
	}
	metrics.RecordEnrichmentPass(outcome, duration)

	slog.Info("enrichment pass finished",
		slog.String("url", url),
		slog.String("outcome", outcome),
		slog.Int("items", len(items)),
		slog.Int("classified", len(resolved)),
		slog.Duration("duration", duration))

	if persistErr != nil {
		return persistErr
	}
	if deadlineHit {
		return ErrDeadlineExceeded
	}
	return nil
}

// EnrichAsync launches EnrichFeed in a detached goroutine. The pass keeps
// running after the originating request's context is canceled; failures are
// logged and surface nowhere else.
func (s *Service) EnrichAsync(ctx context.Context, url string, items []entity.Item) {
	bg := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in background enrichment",
					slog.String("url", url),
					slog.Any("panic", r))
			}
		}()

		if err := s.EnrichFeed(bg, url, items); err != nil {
			slog.Warn("background enrichment finished with error",
				slog.String("url", url),
				slog.Any("error", err))
		}
	}()
}

// partition splits items into cached verdicts and distinct fingerprints
// still needing classification. A tag cache read error is treated as a miss
// so the pass degrades to classification instead of failing.
func (s *Service) partition(ctx context.Context, items []entity.Item) (map[string]entity.TagCacheEntry, []pendingItem) {
	resolved := make(map[string]entity.TagCacheEntry)
	queue := make([]pendingItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for i := range items {
		fp := items[i].Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}

		entry, ok, err := s.Tags.Lookup(ctx, fp)
		if err != nil {
			slog.Warn("tag cache lookup failed, treating as miss",
				slog.String("fingerprint", fp),
				slog.Any("error", err))
		}
		if ok {
			resolved[fp] = *entry
			metrics.RecordItemTagged("cache")
			continue
		}

		queue = append(queue, pendingItem{
			fingerprint: fp,
			title:       items[i].Title,
			description: items[i].Description,
			link:        items[i].Link,
		})
	}

	return resolved, queue
}

// classifyBatch classifies one batch and folds the verdicts into resolved.
// A classifier failure leaves the whole batch untagged for retry on a later
// pass; it never aborts the remaining batches.
func (s *Service) classifyBatch(ctx context.Context, batch []pendingItem, resolved map[string]entity.TagCacheEntry) {
	// Classification sees the enhanced description when an enhancer is
	// wired; fingerprints were already computed from the original.
	descriptions := make([]string, len(batch))
	inputs := make([]BatchInput, 0, len(batch))
	for i, p := range batch {
		descriptions[i] = p.description
		if s.Enhancer != nil {
			descriptions[i] = s.Enhancer.EnhanceDescription(ctx, p.link, p.description)
		}
		inputs = append(inputs, BatchInput{Title: p.title, Description: descriptions[i]})
	}

	verdicts, err := s.Classifier.ClassifyBatch(ctx, inputs)
	if err != nil {
		slog.Warn("classifier batch failed, leaving batch untagged",
			slog.Int("batch_size", len(batch)),
			slog.Any("error", err))
		return
	}

	byTitle := make(map[string][]string, len(verdicts))
	for _, v := range verdicts {
		byTitle[v.Title] = v.Tags
	}

	for i, p := range batch {
		raw := byTitle[p.title]

		origin := "classifier"
		if len(tagging.Normalize(raw)) == 0 {
			origin = "fallback"
		}

		tags := tagging.Finalize(s.Taxonomy, raw, p.title, descriptions[i])
		subs := tagging.Subcategories(s.Taxonomy, tags)

		if err := s.Tags.Store(ctx, p.fingerprint, tags, subs); err != nil {
			slog.Warn("failed to store tag cache entry",
				slog.String("fingerprint", p.fingerprint),
				slog.Any("error", err))
		}

		resolved[p.fingerprint] = entity.TagCacheEntry{Tags: tags, Subcategories: subs}
		metrics.RecordItemTagged(origin)
	}
}

// reconcile removes tag entries for fingerprints no longer present in any
// cached feed. Best effort; failures are logged and the pass continues.
func (s *Service) reconcile(ctx context.Context) {
	live, err := s.Feeds.LiveFingerprints(ctx)
	if err != nil {
		slog.Warn("reconciliation skipped, live set unavailable",
			slog.Any("error", err))
		return
	}

	removed, err := s.Tags.Reconcile(ctx, live)
	if err != nil {
		slog.Warn("reconciliation incomplete",
			slog.Int("removed", removed),
			slog.Any("error", err))
	}
	metrics.RecordTagEntriesReconciled(removed)
}

// applyTags copies items and fills in tags for every resolved fingerprint.
// Items sharing a fingerprint share a verdict.
func applyTags(items []entity.Item, resolved map[string]entity.TagCacheEntry) []entity.Item {
	tagged := make([]entity.Item, len(items))
	copy(tagged, items)

	for i := range tagged {
		if entry, ok := resolved[tagged[i].Fingerprint()]; ok {
			tagged[i].Tags = entry.Tags
			tagged[i].Subcategories = entry.Subcategories
		}
	}
	return tagged
}
