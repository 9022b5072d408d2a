// Package ask orchestrates the question-answering path: resolve the ticker,
// route the mode, run recency-biased retrieval and synthesize the answer.
package ask

import (
	"context"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
	"github.com/kailas-cloud/djia-rag/internal/domain/route"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/usecase/answer"
)

// UnresolvedTickerAnswer is the user-facing guidance when no company or
// symbol can be extracted from a question.
const UnresolvedTickerAnswer = "Indica el valor (ej.: «¿Cómo va Microsoft hoy?»)."

// resolver extracts the subject ticker from a question.
type resolver interface {
	Resolve(question string) (ticker.Symbol, bool)
}

// router classifies a question into an answer mode.
type router interface {
	Route(question string) route.Mode
}

// corpus is the consumer interface for retrieval (ISP).
type corpus interface {
	Query(ctx context.Context, p domain.Partition, vector []float32, filters filter.Expression, k int) ([]domain.Hit, error)
}

// synthesizer produces the final answer from retrieved evidence.
type synthesizer interface {
	Synthesize(ctx context.Context, question, contextText string, sources []answer.Source, mode route.Mode) (answer.Answer, error)
}

// Config holds the retrieval window and candidate-count parameters.
type Config struct {
	PriceWindowDays int // recency window for the prices partition
	DocsWindowDays  int // recency window for the news partition
	PriceCandidates int // KNN candidates for prices (over-fetched, top 3 kept)
	DocsCandidates  int // KNN candidates for docs (top 5 kept)
}
