package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tagfeed/internal/domain/entity"
)

// FeedWarmer is the slice of the feed service a warm run needs. Get
// refreshes the feed cache when stale and kicks off tag enrichment in
// the background, which is exactly what warming wants.
type FeedWarmer interface {
	Get(ctx context.Context, url string) ([]entity.Item, error)
}

// Warmer runs one warm pass over a list of feed URLs with bounded
// parallelism. Individual feed failures are logged and counted but do
// not stop the rest of the run.
type Warmer struct {
	svc         FeedWarmer
	logger      *slog.Logger
	metrics     *WorkerMetrics
	concurrency int
}

// NewWarmer creates a Warmer. concurrency values below 1 are raised
// to 1.
func NewWarmer(svc FeedWarmer, logger *slog.Logger, metrics *WorkerMetrics, concurrency int) *Warmer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Warmer{
		svc:         svc,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// Run warms every URL in feeds and records the run in metrics. The
// returned count is the number of feeds that failed; the run itself only
// errors when the context is cancelled before all feeds were attempted.
func (w *Warmer) Run(ctx context.Context, feeds []string) (int, error) {
	start := time.Now()
	w.logger.Info("warm run starting", slog.Int("feeds", len(feeds)))

	failures := make(chan string, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, url := range feeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			items, err := w.svc.Get(gctx, url)
			if err != nil {
				w.metrics.RecordFeedWarmed("failure")
				w.logger.Warn("feed warm failed",
					slog.String("feed_url", url),
					slog.Any("error", err))
				failures <- url
				return nil
			}

			w.metrics.RecordFeedWarmed("success")
			w.logger.Debug("feed warmed",
				slog.String("feed_url", url),
				slog.Int("items", len(items)))
			return nil
		})
	}

	err := g.Wait()
	close(failures)
	failed := len(failures)

	elapsed := time.Since(start)
	w.metrics.RecordRunDuration(elapsed.Seconds())

	switch {
	case err != nil:
		w.metrics.RecordRun("failure")
	case failed > 0:
		w.metrics.RecordRun("failure")
	default:
		w.metrics.RecordRun("success")
		w.metrics.RecordLastSuccess()
	}

	w.logger.Info("warm run finished",
		slog.Int("feeds", len(feeds)),
		slog.Int("failed", failed),
		slog.Duration("elapsed", elapsed))
	return failed, err
}
