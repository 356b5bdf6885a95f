// Package fetcher extracts article text from item pages to give the
// classifier more to work with when a feed's descriptions run thin.
package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"tagfeed/internal/resilience/circuitbreaker"
	"tagfeed/internal/usecase/rss"

	"github.com/go-shiori/go-readability"
)

// Enhancer fetches an item's page and runs readability extraction over it.
// It satisfies enrich.ContentEnhancer: any failure, and any description that
// is already long enough, returns the original description unchanged.
//
// Enhancer is safe for concurrent use.
type Enhancer struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         Config
	logger         *slog.Logger
}

// NewEnhancer builds an Enhancer from cfg. The HTTP client validates every
// redirect hop against the same SSRF rules as the initial URL.
func NewEnhancer(cfg Config, logger *slog.Logger) *Enhancer {
	e := &Enhancer{
		config: cfg,
		logger: logger,
		circuitBreaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "content-fetch",
			MaxRequests:      5,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		}),
	}

	e.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= e.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := rss.ValidateURL(req.URL.String(), e.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target rejected: %w", err)
			}
			return nil
		},
	}
	return e
}

// EnhanceDescription returns extracted page text for link when description is
// shorter than the configured threshold, and description itself otherwise or
// on any fetch or extraction failure.
func (e *Enhancer) EnhanceDescription(ctx context.Context, link, description string) string {
	if len([]rune(description)) >= e.config.Threshold || link == "" {
		return description
	}

	text, err := e.fetch(ctx, link)
	if err != nil {
		e.logger.Debug("content enhancement skipped",
			slog.String("url", link),
			slog.Any("error", err))
		return description
	}

	e.logger.Debug("description enhanced from page content",
		slog.String("url", link),
		slog.Int("description_length", len(description)),
		slog.Int("extracted_length", len(text)))
	return text
}

func (e *Enhancer) fetch(ctx context.Context, link string) (string, error) {
	if err := rss.ValidateURL(link, e.config.DenyPrivateIPs); err != nil {
		return "", err
	}

	result, err := e.circuitBreaker.Execute(func() (interface{}, error) {
		return e.doFetch(ctx, link)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (e *Enhancer) doFetch(ctx context.Context, link string) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "TagFeedBot")

	resp, err := e.client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: exceeded %v", ErrTimeout, e.config.Timeout)
		}
		// Surface the redirect validation error rather than the url.Error wrapper.
		if urlErr, ok := err.(*url.Error); ok && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Read one byte past the cap so an oversized body is detectable.
	body, err := io.ReadAll(io.LimitReader(resp.Body, e.config.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > e.config.MaxBodySize {
		return "", fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, e.config.MaxBodySize)
	}

	// Prefer the post-redirect URL so relative links resolve correctly.
	pageURL, _ := url.Parse(link)
	if resp.Request != nil && resp.Request.URL != nil {
		pageURL = resp.Request.URL
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	if article.TextContent != "" {
		return article.TextContent, nil
	}
	if article.Content != "" {
		return article.Content, nil
	}
	return "", ErrNoContent
}
