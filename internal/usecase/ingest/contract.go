// Package ingest holds the price and news ingestion pipelines: fetch per
// ticker in parallel, passage-encode once per batch, upsert once per batch.
package ingest

import (
	"context"
	"time"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
	"github.com/kailas-cloud/djia-rag/internal/transport/yahoo"
)

// marketFeed provides daily OHLCV bars per ticker.
type marketFeed interface {
	DailySeries(ctx context.Context, ticker string, start, end time.Time) ([]yahoo.PriceRow, error)
}

// newsFeed provides recent headline items per ticker.
type newsFeed interface {
	Headlines(ctx context.Context, ticker string, limit int) ([]yahoo.NewsItem, error)
}

// corpus is the consumer interface for document persistence.
type corpus interface {
	UpsertBatch(ctx context.Context, p domain.Partition, docs []domain.Document) error
	DeleteWhere(ctx context.Context, p domain.Partition, filters filter.Expression) (int, error)
}

// Config holds the ingestion pipeline parameters.
type Config struct {
	PriceWindowDays int // trailing price window when the request omits days
	NewsLimit       int // per-ticker headline limit when the request omits it
	RetentionDays   int // age-based cleanup cutoff
	FetchWorkers    int // parallel per-ticker fetch workers
}

// Result is the outcome of one pipeline run. Per-ticker fetch failures do not
// abort the batch; they land in Warnings.
type Result struct {
	Ingested int      `json:"ingested"`
	Warnings []string `json:"warnings"`
}
