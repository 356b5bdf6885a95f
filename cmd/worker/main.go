// The worker warms the feed cache on a cron schedule. Every run loads
// the configured feed list and pulls each feed through the same
// fetch-cache-enrich path the API serves from, so clients always hit a
// warm cache and tags accumulate without request traffic.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"tagfeed/internal/cache"
	hhttp "tagfeed/internal/handler/http/respond"
	"tagfeed/internal/infra/adapter/persistence/memory"
	"tagfeed/internal/infra/adapter/persistence/postgres"
	"tagfeed/internal/infra/adapter/persistence/sqlite"
	"tagfeed/internal/infra/classifier"
	"tagfeed/internal/infra/feed"
	"tagfeed/internal/infra/fetcher"
	workerPkg "tagfeed/internal/infra/worker"
	"tagfeed/internal/observability/logging"
	"tagfeed/internal/repository"
	"tagfeed/internal/tagging"
	"tagfeed/internal/usecase/enrich"
	"tagfeed/internal/usecase/rss"
	"tagfeed/pkg/config"
)

func main() {
	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("warm_schedule", workerConfig.WarmSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.String("feeds_file", workerConfig.FeedsFile),
		slog.Int("warm_concurrency", workerConfig.WarmConcurrency),
		slog.Duration("warm_timeout", workerConfig.WarmTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	store := openStore(logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		}
	}()

	svc := setupFeedService(logger, store)

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	warmer := workerPkg.NewWarmer(svc, logger, workerMetrics, workerConfig.WarmConcurrency)
	startCronWorker(ctx, logger, warmer, workerConfig, workerMetrics, healthServer)
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// openStore selects the cache backend from KV_BACKEND: "memory"
// (default), "sqlite" (KV_SQLITE_PATH), or "postgres" (DATABASE_URL).
// The worker and the API must point at the same backend for warming to
// help; a memory worker only warms its own process.
func openStore(logger *slog.Logger) repository.KVStore {
	backend := config.GetEnvString("KV_BACKEND", "memory")

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
			logger.Error("failed to open postgres store", slog.Any("error", hhttp.SanitizeError(err)))
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

// setupFeedService wires the fetch-cache-enrich path over the store.
func setupFeedService(logger *slog.Logger, store repository.KVStore) *rss.Service {
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
	cfg := rss.Config{
		DenyPrivateIPs: config.GetEnvBool("FEED_DENY_PRIVATE_IPS", true),
	}
	return rss.NewService(feedFetcher, feedCache, tagCache, enrichSvc, cfg)
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

// startCronWorker schedules warm runs and blocks until shutdown. One run
// fires immediately so caches are warm before the first cron tick.
func startCronWorker(ctx context.Context, logger *slog.Logger, warmer *workerPkg.Warmer, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(cfg.WarmSchedule, func() {
		runWarmJob(ctx, logger, warmer, cfg, metrics)
	}); err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.WarmSchedule),
		slog.String("timezone", cfg.Timezone))

	runWarmJob(ctx, logger, warmer, cfg, metrics)

	<-ctx.Done()
	healthServer.SetReady(false)

	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(cfg.WarmTimeout):
		logger.Warn("warm run still in flight at shutdown deadline")
	}
	logger.Info("worker stopped")
}

// runWarmJob executes one warm run under the configured timeout. The
// feed list is re-read each run so edits are picked up without a
// restart.
func runWarmJob(ctx context.Context, logger *slog.Logger, warmer *workerPkg.Warmer, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	feeds, err := workerPkg.LoadFeedList(cfg.FeedsFile)
	if err != nil {
		logger.Error("failed to load feed list", slog.Any("error", err))
		metrics.RecordRun("failure")
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.WarmTimeout)
	defer cancel()

	if _, err := warmer.Run(runCtx, feeds); err != nil {
		logger.Error("warm run aborted", slog.Any("error", hhttp.SanitizeError(err)))
	}
}
