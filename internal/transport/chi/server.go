// Package chi holds the HTTP API: ask, ingestion triggers and the service
// endpoints (tickers, health, metrics).
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/ticker"
	"github.com/kailas-cloud/djia-rag/internal/usecase/answer"
	ingestuc "github.com/kailas-cloud/djia-rag/internal/usecase/ingest"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeProviderError    = "provider_error"
	codeInternalError    = "internal_error"
)

// asker answers free-text questions. Domain outcomes (unresolved ticker, no
// evidence) come back as answers, never as errors.
type asker interface {
	Ask(ctx context.Context, question string) (answer.Answer, error)
}

// ingester runs the ingestion pipelines.
type ingester interface {
	IngestPrices(ctx context.Context, tickers []ticker.Symbol, days int) (ingestuc.Result, error)
	IngestNews(ctx context.Context, tickers []ticker.Symbol, limit int) (ingestuc.Result, error)
}

// pinger checks store liveness for the health endpoint.
type pinger interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server is the HTTP API server.
type Server struct {
	ask           asker
	ingest        ingester
	registry      *ticker.Registry
	store         pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(ask asker, ingest ingester, registry *ticker.Registry, store pinger, logger *zap.Logger) *Server {
	s := &Server{
		ask:      ask,
		ingest:   ingest,
		registry: registry,
		store:    store,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/ask", s.handleAsk)
	r.Post("/ingest/prices", s.handleIngestPrices)
	r.Post("/ingest/news", s.handleIngestNews)
	r.Get("/tickers", s.handleTickers)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type askRequest struct {
	Question string `json:"question"`
}

// handleAsk handles POST /ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "question is required")
		return
	}

	out, err := s.ask.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

type ingestPricesRequest struct {
	Tickers []string `json:"tickers"`
	Days    int      `json:"days"`
}

// handleIngestPrices handles POST /ingest/prices.
func (s *Server) handleIngestPrices(w http.ResponseWriter, r *http.Request) {
	var req ingestPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.ingest.IngestPrices(r.Context(), req.Tickers, req.Days)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type ingestNewsRequest struct {
	Tickers []string `json:"tickers"`
	Limit   int      `json:"limit"`
}

// handleIngestNews handles POST /ingest/news.
func (s *Server) handleIngestNews(w http.ResponseWriter, r *http.Request) {
	var req ingestNewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.ingest.IngestNews(r.Context(), req.Tickers, req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleTickers handles GET /tickers.
func (s *Server) handleTickers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]ticker.Symbol{
		"tickers": s.registry.Symbols(),
	})
}

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmbeddingProviderError,
		domain.ErrLLMProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
