package db

import "github.com/kailas-cloud/djia-rag/internal/domain/filter"

// FilterExpr aliases the domain filter expression used for pre-filtering.
type FilterExpr = filter.Expression

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      FilterExpr
	Vector       []float32
	K            int
	ReturnFields []string
	RawScores    bool // return __vector_score as raw cosine distance
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
