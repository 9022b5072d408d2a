// djiactl is the operator CLI: ingestion, retention cleanup, the junk-document
// scan and one-off questions against the same stack as the API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/djia-rag/internal/config"
	dbRedis "github.com/kailas-cloud/djia-rag/internal/db/redis"
	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/route"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	logpkg "github.com/kailas-cloud/djia-rag/internal/logger"
	"github.com/kailas-cloud/djia-rag/internal/repository/corpus"
	"github.com/kailas-cloud/djia-rag/internal/repository/embcache"
	genaiGen "github.com/kailas-cloud/djia-rag/internal/transport/genai"
	openaiTransport "github.com/kailas-cloud/djia-rag/internal/transport/openai"
	"github.com/kailas-cloud/djia-rag/internal/transport/yahoo"
	"github.com/kailas-cloud/djia-rag/internal/usecase/answer"
	askuc "github.com/kailas-cloud/djia-rag/internal/usecase/ask"
	gcuc "github.com/kailas-cloud/djia-rag/internal/usecase/gc"
	ingestuc "github.com/kailas-cloud/djia-rag/internal/usecase/ingest"
	"github.com/kailas-cloud/djia-rag/internal/version"
)

var (
	flagTickers []string
	flagDays    int
	flagLimit   int
	flagClean   bool
)

var rootCmd = &cobra.Command{
	Use:           "djiactl",
	Short:         "Operator tooling for the djia-rag pipeline",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run an ingestion pipeline",
}

var ingestPricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Ingest daily OHLCV documents",
	RunE:  runIngestPrices,
}

var ingestNewsCmd = &cobra.Command{
	Use:   "news",
	Short: "Ingest headline documents",
	RunE:  runIngestNews,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete documents past the retention window",
	RunE:  runCleanup,
}

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Scan for near-empty junk documents",
	Long:  `Pages through the news partition and reports near-empty documents. With --clean, deletes them.`,
	RunE:  runGC,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-off question",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	ingestPricesCmd.Flags().StringSliceVar(&flagTickers, "tickers", nil, "tickers to ingest (default: full registry)")
	ingestPricesCmd.Flags().IntVar(&flagDays, "days", 0, "trailing window in days (default: config)")
	ingestNewsCmd.Flags().StringSliceVar(&flagTickers, "tickers", nil, "tickers to ingest (default: full registry)")
	ingestNewsCmd.Flags().IntVar(&flagLimit, "limit", 0, "per-ticker headline limit (default: config)")
	gcCmd.Flags().BoolVar(&flagClean, "clean", false, "delete the junk documents found")

	ingestCmd.AddCommand(ingestPricesCmd)
	ingestCmd.AddCommand(ingestNewsCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired services for one CLI invocation.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	corpus *corpus.Repo
	ingest *ingestuc.Service
	gc     *gcuc.Service
	ask    *askuc.Service
	close  func()
}

// setup wires the full stack the same way the API server does.
func setup(ctx context.Context) (*app, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}

	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	corpusRepo := corpus.New(store, corpus.Config{
		Prefix:      cfg.Storage.KeyPrefix,
		VectorDim:   vecCfg.Dimensions,
		HNSWM:       cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := corpusRepo.EnsureIndexes(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	registry := ticker.NewRegistry()
	feed := yahoo.NewClient(logger)

	passageEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.DocumentInstruction, store, cfg.Storage.KeyPrefix, logger)
	queryEmbedder := buildEmbedder(provName, provCfg, vecCfg, vecCfg.QueryInstruction, store, cfg.Storage.KeyPrefix, logger)

	generator, err := buildGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	synth := answer.New(generator, cfg.LLM.Enabled, cfg.LLM.Provider, cfg.LLM.Model, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		corpus: corpusRepo,
		ingest: ingestuc.New(feed, feed, passageEmbedder, corpusRepo, registry, ingestuc.Config{
			PriceWindowDays: cfg.Ingest.PriceWindowDays,
			NewsLimit:       cfg.Ingest.NewsLimit,
			RetentionDays:   cfg.Ingest.RetentionDays,
			FetchWorkers:    cfg.Ingest.FetchWorkers,
		}, nil),
		gc: gcuc.New(corpusRepo),
		ask: askuc.New(registry, route.NewRouter(), queryEmbedder, corpusRepo, synth, askuc.Config{
			PriceWindowDays: cfg.Retrieval.PriceWindowDays,
			DocsWindowDays:  cfg.Retrieval.DocsWindowDays,
			PriceCandidates: cfg.Retrieval.PriceCandidates,
			DocsCandidates:  cfg.Retrieval.DocsCandidates,
		}, nil),
		close: func() {
			_ = logger.Sync()
			store.Close()
		},
	}, nil
}

func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	instruction string,
	store *dbRedis.Store,
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

	var embedder domain.BatchingEmbedder = embcache.New(base, store, keyPrefix, nil, logger)
	if instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

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

func runIngestPrices(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	ctx = logpkg.ContextWithLogger(ctx, a.logger)

	res, err := a.ingest.IngestPrices(ctx, flagTickers, flagDays)
	if err != nil {
		return fmt.Errorf("ingest prices: %w", err)
	}

	cmd.Printf("Ingested %d price documents\n", res.Ingested)
	printWarnings(cmd, res.Warnings)
	return nil
}

func runIngestNews(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	ctx = logpkg.ContextWithLogger(ctx, a.logger)

	res, err := a.ingest.IngestNews(ctx, flagTickers, flagLimit)
	if err != nil {
		return fmt.Errorf("ingest news: %w", err)
	}

	cmd.Printf("Ingested %d news documents\n", res.Ingested)
	printWarnings(cmd, res.Warnings)
	return nil
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	ctx = logpkg.ContextWithLogger(ctx, a.logger)

	prices := a.ingest.CleanupPrices(ctx)
	news := a.ingest.CleanupNews(ctx)

	cmd.Printf("Deleted %d price documents and %d news documents past retention\n", prices, news)
	return nil
}

func runGC(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	ctx = logpkg.ContextWithLogger(ctx, a.logger)

	if flagClean {
		n, err := a.gc.Clean(ctx, domain.PartitionNews)
		if err != nil {
			return fmt.Errorf("gc clean: %w", err)
		}
		cmd.Printf("Deleted %d junk documents\n", n)
		return nil
	}

	report, err := a.gc.Scan(ctx, domain.PartitionNews)
	if err != nil {
		return fmt.Errorf("gc scan: %w", err)
	}
	cmd.Printf("Scanned %d documents, found %d junk\n", report.Scanned, len(report.JunkIDs))
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	ctx = logpkg.ContextWithLogger(ctx, a.logger)

	out, err := a.ask.Ask(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		cmd.Printf("Warning: %s\n", w)
	}
}
