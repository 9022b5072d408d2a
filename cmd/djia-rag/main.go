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

	"github.com/kailas-cloud/djia-rag/internal/config"
	"github.com/kailas-cloud/djia-rag/internal/db"
	dbRedis "github.com/kailas-cloud/djia-rag/internal/db/redis"
	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/route"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	logpkg "github.com/kailas-cloud/djia-rag/internal/logger"
	"github.com/kailas-cloud/djia-rag/internal/metrics"
	"github.com/kailas-cloud/djia-rag/internal/repository/corpus"
	"github.com/kailas-cloud/djia-rag/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/djia-rag/internal/transport/chi"
	genaiGen "github.com/kailas-cloud/djia-rag/internal/transport/genai"
	openaiTransport "github.com/kailas-cloud/djia-rag/internal/transport/openai"
	"github.com/kailas-cloud/djia-rag/internal/transport/yahoo"
	"github.com/kailas-cloud/djia-rag/internal/usecase/answer"
	askuc "github.com/kailas-cloud/djia-rag/internal/usecase/ask"
	ingestuc "github.com/kailas-cloud/djia-rag/internal/usecase/ingest"
	"github.com/kailas-cloud/djia-rag/internal/version"
)

func main() {
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

	logger.Info("Starting djia-rag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	// Take the first vectorizer config
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	// Separate passage and query chains; swapping their instructions would
	// make similarity scores meaningless.
	passageEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.DocumentInstruction, store, cfg.Storage.KeyPrefix, logger)
	queryEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.QueryInstruction, store, cfg.Storage.KeyPrefix, logger)
	logger.Info("Embedders created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	corpusRepo := corpus.New(store, corpus.Config{
		Prefix:      cfg.Storage.KeyPrefix,
		VectorDim:   vecCfg.Dimensions,
		HNSWM:       cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := corpusRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure indexes", zap.Error(err))
	}

	generator, err := buildGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Fatal("Failed to create answer provider", zap.Error(err))
	}

	registry := ticker.NewRegistry()
	synth := answer.New(generator, cfg.LLM.Enabled, cfg.LLM.Provider, cfg.LLM.Model, logger)

	askSvc := askuc.New(registry, route.NewRouter(), queryEmbedder, corpusRepo, synth, askuc.Config{
		PriceWindowDays: cfg.Retrieval.PriceWindowDays,
		DocsWindowDays:  cfg.Retrieval.DocsWindowDays,
		PriceCandidates: cfg.Retrieval.PriceCandidates,
		DocsCandidates:  cfg.Retrieval.DocsCandidates,
	}, nil)

	feed := yahoo.NewClient(logger)
	ingestSvc := ingestuc.New(feed, feed, passageEmbedder, corpusRepo, registry, ingestuc.Config{
		PriceWindowDays: cfg.Ingest.PriceWindowDays,
		NewsLimit:       cfg.Ingest.NewsLimit,
		RetentionDays:   cfg.Ingest.RetentionDays,
		FetchWorkers:    cfg.Ingest.FetchWorkers,
	}, nil)

	server := chiTransport.NewServer(askSvc, ingestSvc, registry, store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	instruction string,
	store db.Store,
	keyPrefix string,
	logger *zap.Logger,
) domain.BatchingEmbedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	var embedder domain.BatchingEmbedder = base
	if store != nil {
		embedder = embcache.New(base, store, keyPrefix, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// buildGenerator creates the answer provider for the configured backend.
// Returns nil when answer synthesis is disabled (free mode).
func buildGenerator(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (answer.Generator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Provider {
	case "google":
		gen, err := genaiGen.NewGenerator(ctx, &genaiGen.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		return gen, nil
	case "openai":
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown answer provider %q", cfg.Provider)
	}
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
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

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
