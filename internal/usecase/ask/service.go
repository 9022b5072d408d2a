package ask

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
	"github.com/kailas-cloud/djia-rag/internal/domain/route"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/logger"
	"github.com/kailas-cloud/djia-rag/internal/usecase/answer"
)

const (
	pricesContextSize = 3
	docsContextSize   = 5
)

// Service runs the full question-answering path.
type Service struct {
	resolver    resolver
	router      router
	queryEmb    domain.Embedder
	corpus      corpus
	synthesizer synthesizer
	cfg         Config
	now         func() time.Time
}

// New creates the ask service. now is injectable for deterministic cutoffs in
// tests; pass time.Now in production.
func New(
	res resolver,
	rt router,
	queryEmb domain.Embedder,
	c corpus,
	syn synthesizer,
	cfg Config,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		resolver:    res,
		router:      rt,
		queryEmb:    queryEmb,
		corpus:      c,
		synthesizer: syn,
		cfg:         cfg,
		now:         now,
	}
}

// Ask answers a free-text question. Domain outcomes (unresolved ticker, no
// evidence) come back as well-formed answers, not errors; only infrastructure
// failures surface as errors.
func (s *Service) Ask(ctx context.Context, question string) (answer.Answer, error) {
	log := logger.FromContext(ctx)

	sym, ok := s.resolver.Resolve(question)
	if !ok {
		log.Info("Unresolved ticker", zap.String("question", question))
		return answer.Answer{
			Answer:  UnresolvedTickerAnswer,
			Sources: []answer.Source{},
			Mode:    route.ModeDocs,
		}, nil
	}

	mode := s.router.Route(question)
	log.Info("Question routed",
		zap.String("ticker", string(sym)), zap.String("mode", string(mode)))

	emb, err := s.queryEmb.Embed(ctx, question)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.retrieve(ctx, sym, mode, emb.Embedding)
	if err != nil {
		return answer.Answer{}, err
	}

	contextText, sources := buildContext(hits, mode)
	if contextText == "" {
		log.Info("No evidence after retrieval", zap.String("ticker", string(sym)))
		return answer.Answer{
			Answer:  fmt.Sprintf("No hay datos ingestados para %s todavía.", sym),
			Sources: []answer.Source{},
			Mode:    mode,
		}, nil
	}

	out, err := s.synthesizer.Synthesize(ctx, question, contextText, sources, mode)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("answer %s: %w", sym, err)
	}
	return out, nil
}

// retrieve runs the recency-windowed KNN query for the chosen mode. The docs
// query degrades to an unfiltered-recency retry: older documents may predate
// the recency-metadata rollout and lack the field.
func (s *Service) retrieve(
	ctx context.Context, sym ticker.Symbol, mode route.Mode, vector []float32,
) ([]domain.Hit, error) {
	log := logger.FromContext(ctx)

	partition := domain.PartitionNews
	recencyField := domain.FieldPublishedNum
	windowDays := s.cfg.DocsWindowDays
	k := s.cfg.DocsCandidates
	if mode == route.ModePrices {
		partition = domain.PartitionPrices
		recencyField = domain.FieldDateNum
		windowDays = s.cfg.PriceWindowDays
		k = s.cfg.PriceCandidates
	}

	cutoff := domain.CutoffNum(s.now(), windowDays)
	filtered := filter.And(
		filter.Match(domain.FieldTicker, string(sym)),
		filter.InRange(recencyField, filter.GTE(float64(cutoff))),
	)

	hits, err := s.corpus.Query(ctx, partition, vector, filtered, k)

	if mode == route.ModeDocs && (err != nil || len(hits) == 0) {
		if err != nil {
			log.Warn("Filtered docs query failed, retrying without recency filter", zap.Error(err))
		}
		hits, err = s.corpus.Query(ctx, partition, vector,
			filter.And(filter.Match(domain.FieldTicker, string(sym))), k)
		if err != nil {
			// Degrade to the no-evidence answer: the question path never
			// surfaces store failures to the caller.
			log.Warn("Docs retry failed, answering without evidence", zap.Error(err))
			return nil, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", partition, err)
	}

	sortByRecency(hits)
	return hits, nil
}

// sortByRecency orders hits by descending recency key, stable on the original
// (distance) order for ties.
func sortByRecency(hits []domain.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].RecencyKey() > hits[j].RecencyKey()
	})
}

// buildContext renders the bounded evidence context and citation sources.
// Citation indices follow the post-sort order, 1-based.
func buildContext(hits []domain.Hit, mode route.Mode) (string, []answer.Source) {
	if mode == route.ModePrices {
		blocks := make([]string, 0, pricesContextSize)
		for _, h := range hits {
			if len(blocks) >= pricesContextSize {
				break
			}
			header := fmt.Sprintf("[DOC - %s - %s]",
				h.Tags[domain.FieldTicker], h.Tags[domain.FieldDate])
			blocks = append(blocks, header+"\n"+h.Text)
		}
		return strings.Join(blocks, "\n\n"), nil
	}

	blocks := make([]string, 0, docsContextSize)
	sources := make([]answer.Source, 0, docsContextSize)
	for _, h := range hits {
		if len(blocks) >= docsContextSize {
			break
		}

		publisher := h.Tags[domain.FieldPublisher]
		if publisher == "" {
			publisher = h.Tags[domain.FieldSource]
		}

		header := fmt.Sprintf("[S%d] %s · %s · %s",
			len(blocks)+1, h.Tags[domain.FieldTicker], h.Tags[domain.FieldPublishedAt], publisher)
		if url := h.Tags[domain.FieldSourceURL]; url != "" {
			header += " · " + url
		}
		blocks = append(blocks, header+"\n"+h.Text)

		sources = append(sources, answer.Source{
			ID:        h.ID,
			Ticker:    h.Tags[domain.FieldTicker],
			Date:      h.Tags[domain.FieldPublishedAt],
			Publisher: publisher,
			URL:       h.Tags[domain.FieldSourceURL],
		})
	}
	return strings.Join(blocks, "\n\n"), sources
}
