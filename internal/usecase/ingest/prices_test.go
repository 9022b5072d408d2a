package ingest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/transport/yahoo"
)

func TestIngestPrices_BuildsDocuments(t *testing.T) {
	svc, deps := newTestService(t)

	deps.market.seriesFn = func(_ context.Context, _ string, _, _ time.Time) ([]yahoo.PriceRow, error) {
		return []yahoo.PriceRow{testPriceRow(27, 100.5), testPriceRow(28, 101)}, nil
	}

	res, err := svc.IngestPrices(context.Background(), []ticker.Symbol{"msft "}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ingested != 2 {
		t.Errorf("expected 2 ingested, got %d", res.Ingested)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if deps.emb.calls != 1 {
		t.Errorf("expected one batch encode call, got %d", deps.emb.calls)
	}
	if len(deps.corpus.upserts) != 1 {
		t.Fatalf("expected one upsert call, got %d", len(deps.corpus.upserts))
	}

	call := deps.corpus.upserts[0]
	if call.partition != domain.PartitionPrices {
		t.Errorf("unexpected partition: %s", call.partition)
	}

	doc := call.docs[0]
	if doc.ID != "MSFT_2026-08-27" {
		t.Errorf("unexpected id: %s", doc.ID)
	}
	for _, want := range []string{
		"Ticker: MSFT", "Fecha: 2026-08-27", "Apertura: 99.5",
		"Cierre: 100.5", "Máximo: 101.5", "Mínimo: 98.5", "Volumen: 1000",
	} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("text missing %q:\n%s", want, doc.Text)
		}
	}
	if doc.Tags[domain.FieldDocType] != "prices" || doc.Tags[domain.FieldSource] != "yfinance_prices" {
		t.Errorf("unexpected tags: %v", doc.Tags)
	}
	if doc.Numerics[domain.FieldDateNum] != 20260827 {
		t.Errorf("unexpected date_num: %v", doc.Numerics[domain.FieldDateNum])
	}
	if len(doc.Vector) != 2 {
		t.Errorf("vector not assigned: %v", doc.Vector)
	}
}

func TestIngestPrices_DefaultsToRegistry(t *testing.T) {
	svc, deps := newTestService(t)

	_, err := svc.IngestPrices(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sort.Strings(deps.market.calls)
	if len(deps.market.calls) != 2 || deps.market.calls[0] != "AAPL" || deps.market.calls[1] != "MSFT" {
		t.Errorf("expected all registry tickers fetched, got %v", deps.market.calls)
	}
}

func TestIngestPrices_FetchFailureBecomesWarning(t *testing.T) {
	svc, deps := newTestService(t)

	deps.market.seriesFn = func(_ context.Context, tk string, _, _ time.Time) ([]yahoo.PriceRow, error) {
		if tk == "AAPL" {
			return nil, errors.New("rate limited")
		}
		return []yahoo.PriceRow{testPriceRow(28, 101)}, nil
	}

	res, err := svc.IngestPrices(context.Background(), []ticker.Symbol{"AAPL", "MSFT"}, 10)
	if err != nil {
		t.Fatalf("one bad ticker must not abort the batch: %v", err)
	}
	if res.Ingested != 1 {
		t.Errorf("expected 1 ingested, got %d", res.Ingested)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "AAPL") {
		t.Errorf("expected AAPL warning, got %v", res.Warnings)
	}
}

func TestIngestPrices_NothingFetched(t *testing.T) {
	svc, deps := newTestService(t)

	res, err := svc.IngestPrices(context.Background(), []ticker.Symbol{"MSFT"}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ingested != 0 {
		t.Errorf("expected 0 ingested, got %d", res.Ingested)
	}
	if deps.emb.calls != 0 || len(deps.corpus.upserts) != 0 {
		t.Error("empty batch must not encode or upsert")
	}
}

func TestIngestPrices_EncodeErrorAborts(t *testing.T) {
	svc, deps := newTestService(t)

	deps.market.seriesFn = func(_ context.Context, _ string, _, _ time.Time) ([]yahoo.PriceRow, error) {
		return []yahoo.PriceRow{testPriceRow(28, 101)}, nil
	}
	deps.emb.batchFn = func(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
		return domain.BatchEmbeddingResult{}, errors.New("provider down")
	}

	if _, err := svc.IngestPrices(context.Background(), []ticker.Symbol{"MSFT"}, 10); err == nil {
		t.Fatal("expected error")
	}
	if len(deps.corpus.upserts) != 0 {
		t.Error("must not upsert without embeddings")
	}
}

func TestCleanupPrices(t *testing.T) {
	svc, deps := newTestService(t)
	deps.corpus.deleteFn = func(_ context.Context, _ domain.Partition, _ filter.Expression) (int, error) {
		return 7, nil
	}

	n := svc.CleanupPrices(context.Background())
	if n != 7 {
		t.Errorf("expected 7 deleted, got %d", n)
	}

	call := deps.corpus.deletes[0]
	if call.partition != domain.PartitionPrices {
		t.Errorf("unexpected partition: %s", call.partition)
	}
	// fixedNow 2026-08-31 minus 30-day retention
	gt, gte, lt, _ := rangeBounds(t, call.filters, domain.FieldDateNum)
	if gt != nil || gte != nil {
		t.Error("price cleanup must not carry a lower bound")
	}
	if lt == nil || *lt != 20260801 {
		t.Errorf("unexpected cutoff: %v", lt)
	}
}

func TestCleanupPrices_ErrorSwallowed(t *testing.T) {
	svc, deps := newTestService(t)
	deps.corpus.deleteFn = func(context.Context, domain.Partition, filter.Expression) (int, error) {
		return 0, errors.New("store down")
	}

	if n := svc.CleanupPrices(context.Background()); n != 0 {
		t.Errorf("expected 0 on failure, got %d", n)
	}
}
