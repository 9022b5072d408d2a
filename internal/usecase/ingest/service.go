package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/logger"
	"github.com/kailas-cloud/djia-rag/internal/metrics"
)

// Document type and provenance values written into metadata.
const (
	docTypePrices = "prices"
	docTypeNews   = "news"
	sourcePrices  = "yfinance_prices"
	sourceNews    = "yfinance_news"
)

// Service runs the ingestion pipelines against the document corpus.
type Service struct {
	market     marketFeed
	news       newsFeed
	passageEmb domain.BatchEmbedder
	corpus     corpus
	registry   *ticker.Registry
	cfg        Config
	now        func() time.Time
}

// New creates the ingestion service. now is injectable for deterministic
// dates in tests; pass time.Now in production.
func New(
	market marketFeed,
	news newsFeed,
	passageEmb domain.BatchEmbedder,
	c corpus,
	registry *ticker.Registry,
	cfg Config,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		market:     market,
		news:       news,
		passageEmb: passageEmb,
		corpus:     c,
		registry:   registry,
		cfg:        cfg,
		now:        now,
	}
}

// resolveTickers normalizes the requested symbols, defaulting to the full
// registry when none are given.
func (s *Service) resolveTickers(symbols []ticker.Symbol) []ticker.Symbol {
	if len(symbols) == 0 {
		return s.registry.Symbols()
	}
	out := make([]ticker.Symbol, 0, len(symbols))
	for _, sym := range symbols {
		sym = ticker.Symbol(strings.ToUpper(strings.TrimSpace(string(sym))))
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

// fetchParallel runs fetch for every ticker on a bounded worker pool. A
// failed ticker becomes a warning and the batch continues; results keep the
// input ticker order.
func fetchParallel[T any](
	ctx context.Context,
	workers int,
	p domain.Partition,
	tickers []ticker.Symbol,
	fetch func(ctx context.Context, sym ticker.Symbol) ([]T, error),
) ([]T, []string) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tickers) {
		workers = len(tickers)
	}

	log := logger.FromContext(ctx)
	perTicker := make([][]T, len(tickers))
	warnings := make([]string, 0)

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				items, err := fetch(ctx, tickers[i])
				if err != nil {
					metrics.IngestFetchFailuresTotal.WithLabelValues(string(p)).Inc()
					log.Warn("Ticker fetch failed, skipping",
						zap.String("partition", string(p)),
						zap.String("ticker", string(tickers[i])),
						zap.Error(err))
					mu.Lock()
					warnings = append(warnings, fmt.Sprintf("%s: %v", tickers[i], err))
					mu.Unlock()
					continue
				}
				perTicker[i] = items
			}
		}()
	}

	for i := range tickers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var all []T
	for _, items := range perTicker {
		all = append(all, items...)
	}
	return all, warnings
}

// encodeAndUpsert passage-encodes the whole batch in one call and writes it
// in one upsert. Both calls are per-batch, not per-ticker.
func (s *Service) encodeAndUpsert(
	ctx context.Context, p domain.Partition, docs []domain.Document,
) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	res, err := s.passageEmb.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("encode %s batch: %w", p, err)
	}
	if len(res.Embeddings) != len(docs) {
		return 0, fmt.Errorf("encode %s batch: expected %d embeddings, got %d",
			p, len(docs), len(res.Embeddings))
	}
	for i := range docs {
		docs[i].Vector = res.Embeddings[i]
	}

	if err := s.corpus.UpsertBatch(ctx, p, docs); err != nil {
		return 0, fmt.Errorf("upsert %s batch: %w", p, err)
	}

	metrics.IngestDocumentsTotal.WithLabelValues(string(p)).Add(float64(len(docs)))
	logger.FromContext(ctx).Info("Batch ingested",
		zap.String("partition", string(p)), zap.Int("documents", len(docs)))
	return len(docs), nil
}
