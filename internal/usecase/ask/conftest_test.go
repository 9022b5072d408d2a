package ask

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
	"github.com/kailas-cloud/djia-rag/internal/domain/route"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/usecase/answer"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

type queryCall struct {
	partition domain.Partition
	filters   filter.Expression
	k         int
}

type mockCorpus struct {
	queryFn func(ctx context.Context, p domain.Partition, vector []float32, filters filter.Expression, k int) ([]domain.Hit, error)
	calls   []queryCall
}

func (m *mockCorpus) Query(
	ctx context.Context, p domain.Partition, vector []float32, filters filter.Expression, k int,
) ([]domain.Hit, error) {
	m.calls = append(m.calls, queryCall{partition: p, filters: filters, k: k})
	if m.queryFn != nil {
		return m.queryFn(ctx, p, vector, filters, k)
	}
	return nil, nil
}

type synthCall struct {
	question    string
	contextText string
	sources     []answer.Source
	mode        route.Mode
}

type mockSynthesizer struct {
	out   answer.Answer
	err   error
	calls []synthCall
}

func (m *mockSynthesizer) Synthesize(
	_ context.Context, question, contextText string, sources []answer.Source, mode route.Mode,
) (answer.Answer, error) {
	m.calls = append(m.calls, synthCall{question, contextText, sources, mode})
	if m.err != nil {
		return answer.Answer{}, m.err
	}
	out := m.out
	out.Sources = sources
	out.Mode = mode
	return out, nil
}

// fixedNow anchors recency cutoffs for deterministic filters.
var fixedNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *mockCorpus, *mockSynthesizer) {
	t.Helper()
	mc := &mockCorpus{}
	syn := &mockSynthesizer{out: answer.Answer{Answer: "respuesta"}}
	svc := New(
		ticker.NewRegistry(),
		route.NewRouter(),
		&mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}},
		mc,
		syn,
		Config{PriceWindowDays: 10, DocsWindowDays: 30, PriceCandidates: 60, DocsCandidates: 12},
		func() time.Time { return fixedNow },
	)
	return svc, mc, syn
}

func newsHit(id string, publishedNum int, publishedAt, publisher, url string) domain.Hit {
	return domain.Hit{
		ID:   id,
		Text: "Título: " + id,
		Tags: map[string]string{
			domain.FieldTicker:      "BA",
			domain.FieldPublishedAt: publishedAt,
			domain.FieldPublisher:   publisher,
			domain.FieldSourceURL:   url,
		},
		Numerics: map[string]float64{domain.FieldPublishedNum: float64(publishedNum)},
	}
}

func priceHit(id string, dateNum int, date string) domain.Hit {
	return domain.Hit{
		ID:   id,
		Text: "Ticker: MSFT\nFecha: " + date,
		Tags: map[string]string{
			domain.FieldTicker: "MSFT",
			domain.FieldDate:   date,
		},
		Numerics: map[string]float64{domain.FieldDateNum: float64(dateNum)},
	}
}

// rangeGTE extracts the inclusive lower bound of the recency condition, or -1.
func rangeGTE(expr filter.Expression, key string) float64 {
	for _, c := range expr.Conditions() {
		if c.Key() == key && c.IsRange() {
			if _, gte, _, _ := c.Range().Bounds(); gte != nil {
				return *gte
			}
		}
	}
	return -1
}

func hasMatch(expr filter.Expression, key, value string) bool {
	for _, c := range expr.Conditions() {
		if c.IsMatch() && c.Key() == key && c.MatchValue() == value {
			return true
		}
	}
	return false
}
