package domain

import "errors"

var (
	// ErrUnresolvedTicker signals that a question names no known company or symbol.
	ErrUnresolvedTicker = errors.New("unresolved ticker")
	// ErrNoEvidence signals that retrieval returned zero hits after fallback.
	ErrNoEvidence = errors.New("no evidence")
	// ErrEmptyDocument signals a document with empty text, rejected before indexing.
	ErrEmptyDocument = errors.New("empty document text")
	// ErrVectorDimMismatch signals a vector dimension mismatch against the partition.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals an answer-synthesis provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
)
