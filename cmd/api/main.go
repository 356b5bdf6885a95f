// The API server fronts the feed tagging service: it serves cached,
// tag-enriched feeds over HTTP and owns the cache invalidation surface.
// Tag enrichment runs detached from requests; the server never blocks a
// response on the classifier.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tagfeed/internal/cache"
	hhttp "tagfeed/internal/handler/http"
	hfeed "tagfeed/internal/handler/http/feed"
	"tagfeed/internal/handler/http/middleware"
	"tagfeed/internal/handler/http/requestid"
	"tagfeed/internal/handler/http/respond"
	"tagfeed/internal/infra/adapter/persistence/memory"
	"tagfeed/internal/infra/adapter/persistence/postgres"
	"tagfeed/internal/infra/adapter/persistence/sqlite"
	"tagfeed/internal/infra/classifier"
	"tagfeed/internal/infra/feed"
	"tagfeed/internal/infra/fetcher"
	"tagfeed/internal/observability/logging"
	"tagfeed/internal/observability/tracing"
	"tagfeed/internal/repository"
	"tagfeed/internal/tagging"
	"tagfeed/internal/usecase/enrich"
	"tagfeed/internal/usecase/rss"
	"tagfeed/pkg/config"
)

func main() {
	logger := initLogger()

	backend := config.GetEnvString("KV_BACKEND", "memory")
	store := openStore(logger, backend)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		}
	}()

	version := getVersion()
	components := setupServer(logger, store, backend, version)

	runServer(logger, components, version)
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// openStore opens the cache backend named by KV_BACKEND: "memory"
// (default, single instance only), "sqlite" (KV_SQLITE_PATH), or
// "postgres" (DATABASE_URL, for deployments sharing one cache).
func openStore(logger *slog.Logger, backend string) repository.KVStore {
	switch backend {
	case "memory":
		logger.Info("using in-memory cache store")
		return memory.NewKV()
	case "sqlite":
		path := config.GetEnvString("KV_SQLITE_PATH", "tagfeed.db")
		store, err := sqlite.Open(path)
		if err != nil {
			logger.Error("failed to open sqlite store", slog.String("path", path), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("using sqlite cache store", slog.String("path", path))
		return store
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			logger.Error("DATABASE_URL is required when KV_BACKEND=postgres")
			os.Exit(1)
		}
		store, err := postgres.Open(dsn, postgres.DefaultConnectionConfig())
		if err != nil {
			logger.Error("failed to open postgres store", slog.Any("error", respond.SanitizeError(err)))
			os.Exit(1)
		}
		logger.Info("using postgres cache store")
		return store
	default:
		logger.Error("invalid KV_BACKEND",
			slog.String("backend", backend),
			slog.String("expected", "memory, sqlite or postgres"))
		os.Exit(1)
		return nil
	}
}

// createClassifier selects the tag classifier from CLASSIFIER_PROVIDER:
// "openai" (default), "claude", or "noop" for deployments that only want
// the keyword taxonomy.
func createClassifier(logger *slog.Logger) enrich.Classifier {
	provider := config.GetEnvString("CLASSIFIER_PROVIDER", "openai")

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Error("OPENAI_API_KEY is required when CLASSIFIER_PROVIDER=openai")
			os.Exit(1)
		}
		logger.Info("using OpenAI for tag classification")
		return classifier.NewOpenAI(apiKey)
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Error("ANTHROPIC_API_KEY is required when CLASSIFIER_PROVIDER=claude")
			os.Exit(1)
		}
		logger.Info("using Claude for tag classification")
		return classifier.NewClaude(apiKey)
	case "noop":
		logger.Info("classifier disabled, keyword taxonomy only")
		return classifier.NewNoOp()
	default:
		logger.Error("invalid CLASSIFIER_PROVIDER",
			slog.String("provider", provider),
			slog.String("expected", "openai, claude or noop"))
		os.Exit(1)
		return nil
	}
}

// createHTTPClient builds the feed fetch client. TLS 1.2+ is enforced.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// ServerComponents holds what runServer needs for operation and cleanup.
type ServerComponents struct {
	Handler     http.Handler
	RateLimiter *middleware.RateLimiter
}

// setupServer wires the feed service, routes, and middleware chain.
func setupServer(logger *slog.Logger, store repository.KVStore, backend, version string) *ServerComponents {
	feedCache := cache.NewFeedCache(store)
	tagCache := cache.NewTagCache(store)

	cls := createClassifier(logger)
	enrichSvc := enrich.NewService(tagCache, feedCache, cls, tagging.DefaultTaxonomy())

	contentCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load content fetch configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if contentCfg.Enabled {
		enrichSvc.Enhancer = fetcher.NewEnhancer(contentCfg, logger)
		logger.Info("content enhancement enabled",
			slog.Int("threshold", contentCfg.Threshold))
	}

	feedFetcher := feed.NewFetcher(createHTTPClient())
	svc := rss.NewService(feedFetcher, feedCache, tagCache, enrichSvc, rss.Config{
		DenyPrivateIPs: config.GetEnvBool("FEED_DENY_PRIVATE_IPS", true),
	})

	ipExtractor := loadIPExtractor(logger)

	limit := config.GetEnvInt("RATE_LIMIT_REQUESTS", 100)
	window := config.GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute)
	rateLimiter := middleware.NewRateLimiter(limit, window, ipExtractor)
	logger.Info("rate limiting initialized",
		slog.Int("limit", limit),
		slog.Duration("window", window))

	mux := http.NewServeMux()
	hfeed.Register(mux, svc, rateLimiter)

	mux.Handle("GET    /health", &hhttp.HealthHandler{Store: store, Backend: backend, Version: version})
	mux.Handle("GET    /ready", &hhttp.ReadyHandler{Store: store})
	mux.Handle("GET    /live", &hhttp.LiveHandler{})
	mux.Handle("GET    /metrics", hhttp.MetricsHandler())

	return &ServerComponents{
		Handler:     applyMiddleware(logger, mux),
		RateLimiter: rateLimiter,
	}
}

// loadIPExtractor picks how client IPs are derived for rate limiting:
// proxy headers only when RATE_LIMIT_TRUST_PROXY is on, RemoteAddr
// otherwise.
func loadIPExtractor(logger *slog.Logger) middleware.IPExtractor {
	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if proxyConfig.Enabled {
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
		return middleware.NewTrustedProxyExtractor(*proxyConfig)
	}

	logger.Info("rate limiting: using RemoteAddr (proxy headers ignored)")
	return &middleware.RemoteAddrExtractor{}
}

// applyMiddleware wraps the routes in the request-path middleware chain,
// outermost first: Recover, request ID, tracing, logging, metrics, CORS,
// input validation, timeout, body limit. Rate limiting is applied
// per-route where it matters.
func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	requestTimeout := config.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second)

	chain := handler
	chain = hhttp.LimitRequestBody(1 << 20)(chain)
	chain = hhttp.Timeout(requestTimeout)(chain)
	chain = hhttp.InputValidation()(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = tracing.Middleware(chain)
	chain = requestid.Middleware(chain)
	chain = hhttp.Recover(logger)(chain)
	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hhttp.StartRateLimitCleanup(ctx, components.RateLimiter, hhttp.LoadCleanupInterval())

	addr := fmt.Sprintf(":%d", config.GetEnvInt("PORT", 8080))
	srv := &http.Server{
		Addr:              addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Slowloris guard
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
