package fetcher_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"tagfeed/internal/infra/fetcher"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Postgres Vacuum Internals</title></head>
<body>
<article>
<h1>Postgres Vacuum Internals</h1>
<p>Vacuum reclaims storage occupied by dead tuples and keeps the visibility
map current. In normal operation tuples that are deleted or made obsolete by
an update are not physically removed from their table, so periodic vacuuming
is necessary, especially on frequently updated tables.</p>
<p>Autovacuum automates this maintenance, but its defaults are tuned for
small installations. High-churn tables usually need per-table thresholds so
bloat does not outpace the background workers.</p>
</article>
</body>
</html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() fetcher.Config {
	cfg := fetcher.DefaultConfig()
	cfg.Enabled = true
	cfg.DenyPrivateIPs = false // httptest servers bind loopback
	return cfg
}

func TestEnhancer_FetchesShortDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	e := fetcher.NewEnhancer(testConfig(), discardLogger())

	got := e.EnhanceDescription(context.Background(), server.URL, "short blurb")
	if got == "short blurb" {
		t.Fatal("EnhanceDescription() returned the original description, want extracted page text")
	}
	if !strings.Contains(got, "dead tuples") {
		t.Errorf("EnhanceDescription() = %q, want article body text", got)
	}
}

func TestEnhancer_LongDescriptionSkipsFetch(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Threshold = 10
	e := fetcher.NewEnhancer(cfg, discardLogger())

	description := "a description comfortably over the ten character threshold"
	if got := e.EnhanceDescription(context.Background(), server.URL, description); got != description {
		t.Errorf("EnhanceDescription() = %q, want description unchanged", got)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestEnhancer_EmptyLinkSkipsFetch(t *testing.T) {
	e := fetcher.NewEnhancer(testConfig(), discardLogger())

	if got := e.EnhanceDescription(context.Background(), "", "blurb"); got != "blurb" {
		t.Errorf("EnhanceDescription() = %q, want %q", got, "blurb")
	}
}

func TestEnhancer_FallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	e := fetcher.NewEnhancer(testConfig(), discardLogger())

	if got := e.EnhanceDescription(context.Background(), server.URL, "blurb"); got != "blurb" {
		t.Errorf("EnhanceDescription() = %q, want fallback to original description", got)
	}
}

func TestEnhancer_FallsBackWhenPrivateIPsDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.DenyPrivateIPs = true
	e := fetcher.NewEnhancer(cfg, discardLogger())

	if got := e.EnhanceDescription(context.Background(), server.URL, "blurb"); got != "blurb" {
		t.Errorf("EnhanceDescription() = %q, want fallback when target is loopback", got)
	}
}

func TestEnhancer_FallsBackOnOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 2048
	e := fetcher.NewEnhancer(cfg, discardLogger())

	if got := e.EnhanceDescription(context.Background(), server.URL, "blurb"); got != "blurb" {
		t.Errorf("EnhanceDescription() = %q, want fallback on oversized body", got)
	}
}
