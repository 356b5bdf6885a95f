// Package feed fetches and normalizes RSS/Atom feeds.
// It uses the gofeed library to parse feed content with reliability patterns.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tagfeed/internal/domain/entity"
	"tagfeed/internal/resilience/circuitbreaker"
	"tagfeed/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// Fetcher retrieves feeds over HTTP and parses them with gofeed.
// It includes circuit breaker and retry logic for improved reliability.
type Fetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewFetcher creates a new Fetcher with the given HTTP client.
// It automatically configures circuit breaker and retry logic.
func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves the feed at feedURL and returns its normalized items.
// It uses circuit breaker and retry logic for improved reliability.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]entity.Item, error) {
	var items []entity.Item

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		items = cbResult.([]entity.Item)
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return items, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *Fetcher) doFetch(ctx context.Context, feedURL string) ([]entity.Item, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "TagFeedBot"
	fp.Client = f.client

	parsed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	return Normalize(parsed), nil
}
