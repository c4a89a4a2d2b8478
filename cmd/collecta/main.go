package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/collecta-cloud/collecta/internal/config"
	"github.com/collecta-cloud/collecta/internal/domain"
	logpkg "github.com/collecta-cloud/collecta/internal/logger"
	"github.com/collecta-cloud/collecta/internal/metrics"
	"github.com/collecta-cloud/collecta/internal/redis"
	"github.com/collecta-cloud/collecta/internal/repository/embcache"
	ingestrepo "github.com/collecta-cloud/collecta/internal/repository/ingest"
	metadatarepo "github.com/collecta-cloud/collecta/internal/repository/metadata"
	outboxrepo "github.com/collecta-cloud/collecta/internal/repository/outbox"
	"github.com/collecta-cloud/collecta/internal/repository/relational"
	resourcerepo "github.com/collecta-cloud/collecta/internal/repository/resource"
	chiTransport "github.com/collecta-cloud/collecta/internal/transport/chi"
	"github.com/collecta-cloud/collecta/internal/transport/elastic"
	openaiEmb "github.com/collecta-cloud/collecta/internal/transport/openai"
	workerEmb "github.com/collecta-cloud/collecta/internal/transport/worker"
	healthuc "github.com/collecta-cloud/collecta/internal/usecase/health"
	ingestuc "github.com/collecta-cloud/collecta/internal/usecase/ingest"
	outboxuc "github.com/collecta-cloud/collecta/internal/usecase/outbox"
	searchuc "github.com/collecta-cloud/collecta/internal/usecase/search"
	"github.com/collecta-cloud/collecta/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting collecta API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
		zap.String("index_url", cfg.Index.URL),
	)

	// Relational metadata store (sqlite)
	store, err := relational.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open metadata store", zap.Error(err))
	}
	defer store.Close()

	// Redis: outbox stream transport + embedding cache
	rds, err := redis.NewStore(redis.Config{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create redis store", zap.Error(err))
	}
	defer rds.Close()

	ctx := context.Background()
	if err := rds.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}
	logger.Info("Connected to redis")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterOutboxMetrics()
	metrics.RegisterSearchMetrics()

	// Chunk index client
	index := elastic.New(&elastic.Config{
		BaseURL: cfg.Index.URL,
		Index:   cfg.Index.Name,
		Timeout: time.Duration(cfg.Index.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	// Embedder chain: provider -> cache
	embedder := buildEmbedder(cfg, rds, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dim", cfg.Embedding.Dim),
	)

	// Repositories
	outboxStore := outboxrepo.New(store, time.Duration(cfg.Outbox.LeaseTTLSec)*time.Second)
	metaRepo := metadatarepo.New(store)
	resourceRepo := resourcerepo.New(store)
	jobRepo := ingestrepo.New(store)

	// Use case services
	searchSvc := searchuc.New(index, metaRepo, embedder).
		WithTuning(cfg.Search.FetchFloor, cfg.Search.FetchPerPage, cfg.Search.HybridWeight)
	ingestSvc := ingestuc.New(resourceRepo, jobRepo, logger)
	healthSvc := healthuc.New(store, rds, index, newEmbeddingHealthChecker(embedder))

	// Outbox publisher goroutine
	publisher := outboxuc.New(
		outboxStore, rds, logger,
		cfg.Redis.StreamKey,
		cfg.Outbox.BatchSize,
		time.Duration(cfg.Outbox.PollIntervalMS)*time.Millisecond,
	)
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		publisher.Run(publisherCtx)
	}()

	// HTTP server
	server := chiTransport.NewServer(searchSvc, ingestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	stopPublisher()
	<-publisherDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: provider -> cached.
func buildEmbedder(cfg config.Config, rds *redis.Store, logger *zap.Logger) domain.Embedder {
	provCfg := cfg.Embedding.Providers[cfg.Embedding.Provider]

	var base domain.Embedder
	switch cfg.Embedding.Provider {
	case "openai":
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dim,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
	default: // worker
		base = workerEmb.NewEmbedder(&workerEmb.Config{
			BaseURL: provCfg.BaseURL,
			Model:   cfg.Embedding.Model,
			Dim:     cfg.Embedding.Dim,
			Logger:  logger,
		})
	}

	return embcache.New(
		base, rds,
		time.Duration(cfg.Embedding.CacheTTL)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
