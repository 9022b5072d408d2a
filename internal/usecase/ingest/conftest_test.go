package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/transport/yahoo"
)

type mockMarketFeed struct {
	seriesFn func(ctx context.Context, ticker string, start, end time.Time) ([]yahoo.PriceRow, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockMarketFeed) DailySeries(
	ctx context.Context, ticker string, start, end time.Time,
) ([]yahoo.PriceRow, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ticker)
	m.mu.Unlock()
	if m.seriesFn != nil {
		return m.seriesFn(ctx, ticker, start, end)
	}
	return nil, nil
}

type mockNewsFeed struct {
	headlinesFn func(ctx context.Context, ticker string, limit int) ([]yahoo.NewsItem, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockNewsFeed) Headlines(
	ctx context.Context, ticker string, limit int,
) ([]yahoo.NewsItem, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ticker)
	m.mu.Unlock()
	if m.headlinesFn != nil {
		return m.headlinesFn(ctx, ticker, limit)
	}
	return nil, nil
}

type mockBatchEmbedder struct {
	batchFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	calls   int
}

func (m *mockBatchEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if m.batchFn != nil {
		return m.batchFn(ctx, texts)
	}
	embeddings := make([][]float32, len(texts))
	for i := range embeddings {
		embeddings[i] = []float32{0.1, 0.2}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: 10 * len(texts)}, nil
}

type upsertCall struct {
	partition domain.Partition
	docs      []domain.Document
}

type deleteCall struct {
	partition domain.Partition
	filters   filter.Expression
}

type mockCorpus struct {
	upsertErr error
	deleteFn  func(ctx context.Context, p domain.Partition, filters filter.Expression) (int, error)

	upserts []upsertCall
	deletes []deleteCall
}

func (m *mockCorpus) UpsertBatch(
	_ context.Context, p domain.Partition, docs []domain.Document,
) error {
	m.upserts = append(m.upserts, upsertCall{partition: p, docs: docs})
	return m.upsertErr
}

func (m *mockCorpus) DeleteWhere(
	ctx context.Context, p domain.Partition, filters filter.Expression,
) (int, error) {
	m.deletes = append(m.deletes, deleteCall{partition: p, filters: filters})
	if m.deleteFn != nil {
		return m.deleteFn(ctx, p, filters)
	}
	return 0, nil
}

// fixedNow anchors dates and retention cutoffs.
var fixedNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	market *mockMarketFeed
	news   *mockNewsFeed
	emb    *mockBatchEmbedder
	corpus *mockCorpus
}

func newTestService(t *testing.T) (*Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		market: &mockMarketFeed{},
		news:   &mockNewsFeed{},
		emb:    &mockBatchEmbedder{},
		corpus: &mockCorpus{},
	}
	svc := New(
		deps.market, deps.news, deps.emb, deps.corpus,
		ticker.NewRegistryWith([]ticker.Symbol{"AAPL", "MSFT"}, nil),
		Config{PriceWindowDays: 30, NewsLimit: 20, RetentionDays: 30, FetchWorkers: 2},
		func() time.Time { return fixedNow },
	)
	return svc, deps
}

func testPriceRow(day int, closePrice float64) yahoo.PriceRow {
	return yahoo.PriceRow{
		Date:   time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC),
		Open:   closePrice - 1,
		Close:  closePrice,
		High:   closePrice + 1,
		Low:    closePrice - 2,
		Volume: 1000,
	}
}

// rangeBounds extracts the numeric range boundaries of the condition on key.
func rangeBounds(t *testing.T, expr filter.Expression, key string) (gt, gte, lt, lte *float64) {
	t.Helper()
	for _, c := range expr.Conditions() {
		if c.Key() == key && c.IsRange() {
			return c.Range().Bounds()
		}
	}
	t.Fatalf("no range condition on %s", key)
	return nil, nil, nil, nil
}
