package ingest

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/logger"
	"github.com/kailas-cloud/djia-rag/internal/metrics"
	"github.com/kailas-cloud/djia-rag/internal/transport/yahoo"
)

// IngestPrices fetches the trailing daily OHLCV window for each ticker and
// upserts one document per trading day. Tickers with no data are skipped
// silently; fetch failures become warnings without aborting the batch.
func (s *Service) IngestPrices(
	ctx context.Context, symbols []ticker.Symbol, days int,
) (Result, error) {
	if days <= 0 {
		days = s.cfg.PriceWindowDays
	}
	symbols = s.resolveTickers(symbols)

	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	docs, warnings := fetchParallel(ctx, s.cfg.FetchWorkers, domain.PartitionPrices, symbols,
		func(ctx context.Context, sym ticker.Symbol) ([]domain.Document, error) {
			rows, err := s.market.DailySeries(ctx, string(sym), start, end)
			if err != nil {
				return nil, err
			}
			out := make([]domain.Document, 0, len(rows))
			for _, row := range rows {
				out = append(out, priceDocument(sym, row))
			}
			return out, nil
		})

	n, err := s.encodeAndUpsert(ctx, domain.PartitionPrices, docs)
	if err != nil {
		return Result{Warnings: warnings}, err
	}
	return Result{Ingested: n, Warnings: warnings}, nil
}

// CleanupPrices deletes price documents older than the retention window.
// Every price row has a real trading date, so the age filter is
// unconditional. Failures are swallowed: cleanup is best-effort maintenance.
func (s *Service) CleanupPrices(ctx context.Context) int {
	cutoff := domain.CutoffNum(s.now(), s.cfg.RetentionDays)

	n, err := s.corpus.DeleteWhere(ctx, domain.PartitionPrices, filter.And(
		filter.InRange(domain.FieldDateNum, filter.LT(float64(cutoff))),
	))
	if err != nil {
		metrics.CleanupFailuresTotal.WithLabelValues(string(domain.PartitionPrices)).Inc()
		logger.FromContext(ctx).Warn("Price cleanup failed", zap.Error(err))
		return 0
	}
	return n
}

// priceDocument renders one trading day as an indexable document. The ID is
// deterministic per (ticker, day) so overlapping ingestion windows overwrite
// instead of duplicating.
func priceDocument(sym ticker.Symbol, row yahoo.PriceRow) domain.Document {
	date := domain.ISODate(row.Date)

	text := fmt.Sprintf(
		"Ticker: %s\nFecha: %s\nApertura: %s\nCierre: %s\nMáximo: %s\nMínimo: %s\nVolumen: %s",
		sym, date,
		formatPrice(row.Open), formatPrice(row.Close),
		formatPrice(row.High), formatPrice(row.Low),
		formatPrice(row.Volume),
	)

	return domain.Document{
		ID:   fmt.Sprintf("%s_%s", sym, date),
		Text: text,
		Tags: map[string]string{
			domain.FieldTicker:  string(sym),
			domain.FieldDate:    date,
			domain.FieldDocType: docTypePrices,
			domain.FieldSource:  sourcePrices,
		},
		Numerics: map[string]float64{
			domain.FieldDateNum: float64(domain.DateNumFromISO(date)),
		},
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
