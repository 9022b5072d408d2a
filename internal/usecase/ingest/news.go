package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/logger"
	"github.com/kailas-cloud/djia-rag/internal/metrics"
	"github.com/kailas-cloud/djia-rag/internal/transport/yahoo"
)

// headlineDoc pairs a document with its trimmed title for batch-level
// exact-title deduplication.
type headlineDoc struct {
	title string
	doc   domain.Document
}

// IngestNews fetches up to limit headlines per ticker, deduplicates by exact
// title across the whole batch and upserts the result. Items without a
// provider publish timestamp fall back to the ingestion date and are marked
// published_at_missing, keeping them visible to recency filters and safe
// from the age-based cleanup.
func (s *Service) IngestNews(
	ctx context.Context, symbols []ticker.Symbol, limit int,
) (Result, error) {
	if limit <= 0 {
		limit = s.cfg.NewsLimit
	}
	symbols = s.resolveTickers(symbols)
	today := domain.ISODate(s.now())

	headlines, warnings := fetchParallel(ctx, s.cfg.FetchWorkers, domain.PartitionNews, symbols,
		func(ctx context.Context, sym ticker.Symbol) ([]headlineDoc, error) {
			items, err := s.news.Headlines(ctx, string(sym), limit)
			if err != nil {
				return nil, err
			}
			return newsDocuments(sym, items, today), nil
		})

	docs := dedupeByTitle(headlines)

	n, err := s.encodeAndUpsert(ctx, domain.PartitionNews, docs)
	if err != nil {
		return Result{Warnings: warnings}, err
	}
	return Result{Ingested: n, Warnings: warnings}, nil
}

// CleanupNews deletes news documents older than the retention window. The
// published_num > 0 guard keeps the unknown-date sentinel out of the age
// filter; without it every undated document would match < cutoff. Failures
// are swallowed: cleanup is best-effort maintenance.
func (s *Service) CleanupNews(ctx context.Context) int {
	cutoff := domain.CutoffNum(s.now(), s.cfg.RetentionDays)

	n, err := s.corpus.DeleteWhere(ctx, domain.PartitionNews, filter.And(
		filter.InRange(domain.FieldPublishedNum,
			filter.GT(float64(domain.DateUnknown)).WithLT(float64(cutoff))),
	))
	if err != nil {
		metrics.CleanupFailuresTotal.WithLabelValues(string(domain.PartitionNews)).Inc()
		logger.FromContext(ctx).Warn("News cleanup failed", zap.Error(err))
		return 0
	}
	return n
}

// newsDocuments converts feed items into documents. Items with an empty
// trimmed title are discarded; all other fields degrade to empty strings.
func newsDocuments(sym ticker.Symbol, items []yahoo.NewsItem, today string) []headlineDoc {
	out := make([]headlineDoc, 0, len(items))

	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		link := strings.TrimSpace(it.Link)
		publisher := strings.TrimSpace(it.Publisher)
		snippet := strings.TrimSpace(it.Summary)

		publishedAt := ""
		missing := false
		if it.PublishTS > 0 {
			publishedAt = domain.ISODate(time.Unix(it.PublishTS, 0))
		}
		if publishedAt == "" {
			publishedAt = today
			missing = true
		}

		parts := []string{"Título: " + title}
		if snippet != "" {
			parts = append(parts, "Resumen: "+snippet)
		}
		if publisher != "" {
			parts = append(parts, "Medio: "+publisher)
		}
		parts = append(parts, "Fecha: "+publishedAt)
		if link != "" {
			parts = append(parts, "URL: "+link)
		}

		tags := map[string]string{
			domain.FieldTicker:      string(sym),
			domain.FieldDocType:     docTypeNews,
			domain.FieldSource:      sourceNews,
			domain.FieldPublisher:   publisherOrHost(publisher, link),
			domain.FieldSourceURL:   link,
			domain.FieldPublishedAt: publishedAt,
		}
		if missing {
			tags[domain.FieldPubMissing] = "true"
		}

		out = append(out, headlineDoc{
			title: title,
			doc: domain.Document{
				ID:   fmt.Sprintf("%s_news_%s_%s", sym, publishedAt, contentHash(link, title)),
				Text: strings.Join(parts, "\n"),
				Tags: tags,
				Numerics: map[string]float64{
					domain.FieldPublishedNum: float64(domain.DateNumFromISO(publishedAt)),
				},
			},
		})
	}
	return out
}

// dedupeByTitle drops batch-level exact-title duplicates, keeping the
// first-seen occurrence and its position.
func dedupeByTitle(headlines []headlineDoc) []domain.Document {
	seen := make(map[string]struct{}, len(headlines))
	docs := make([]domain.Document, 0, len(headlines))
	for _, h := range headlines {
		if _, ok := seen[h.title]; ok {
			continue
		}
		seen[h.title] = struct{}{}
		docs = append(docs, h.doc)
	}
	return docs
}

// contentHash is the stable per-headline ID suffix, keyed on the URL when
// present and the title otherwise.
func contentHash(link, title string) string {
	key := link
	if key == "" {
		key = title
	}
	sum := sha1.Sum([]byte(key)) //nolint:gosec // identity hash, not cryptographic
	return hex.EncodeToString(sum[:])[:16]
}

func publisherOrHost(publisher, link string) string {
	if publisher != "" {
		return publisher
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
