// Package answer turns retrieved evidence into a final answer, either through
// an LLM provider or a free formatting mode.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/djia-rag/internal/domain/route"
)

// NoEvidenceAnswer is the fixed reply for empty evidence. It never goes
// through a provider so that an empty context cannot hallucinate.
const NoEvidenceAnswer = "No disponible con la evidencia actual."

// Generator is a single-turn text completion provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source is a citation attached to an answer.
type Source struct {
	ID        string `json:"id"`
	Ticker    string `json:"ticker"`
	Date      string `json:"date"`
	Publisher string `json:"publisher,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Answer is the synthesized reply with its provenance.
type Answer struct {
	Answer   string     `json:"answer"`
	Sources  []Source   `json:"sources"`
	Mode     route.Mode `json:"mode"`
	Provider string     `json:"provider"`
	Model    string     `json:"model"`
	UseLLM   bool       `json:"use_llm"`
}

// Synthesizer produces answers from retrieved context.
type Synthesizer struct {
	gen      Generator
	enabled  bool
	provider string
	model    string
	logger   *zap.Logger
}

// New creates a synthesizer. When enabled is false (or gen is nil) answers are
// formatted locally without any provider call.
func New(gen Generator, enabled bool, provider, model string, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		gen:      gen,
		enabled:  enabled && gen != nil,
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// Synthesize builds the final answer for the question given retrieved context.
func (s *Synthesizer) Synthesize(
	ctx context.Context, question, contextText string, sources []Source, mode route.Mode,
) (Answer, error) {
	out := Answer{
		Sources:  sources,
		Mode:     mode,
		Provider: s.provider,
		Model:    s.model,
		UseLLM:   s.enabled,
	}
	if out.Sources == nil {
		out.Sources = []Source{}
	}

	evidence := strings.TrimSpace(contextText)
	if evidence == "" {
		out.Answer = NoEvidenceAnswer
		out.Sources = []Source{}
		return out, nil
	}

	if !s.enabled {
		out.Answer = formatFreeAnswer(evidence)
		return out, nil
	}

	var prompt string
	if mode == route.ModePrices {
		prompt = buildPricesPrompt(question, evidence)
	} else {
		prompt = buildDocsPrompt(question, evidence)
	}

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("synthesize answer: %w", err)
	}

	out.Answer = strings.TrimSpace(text)
	return out, nil
}

// formatFreeAnswer is the no-LLM mode: the first line of evidence, or the
// first two joined when more are available.
func formatFreeAnswer(evidence string) string {
	var lines []string
	for _, ln := range strings.Split(evidence, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	switch len(lines) {
	case 0:
		return NoEvidenceAnswer
	case 1:
		return lines[0]
	default:
		return lines[0] + " " + lines[1]
	}
}

func buildDocsPrompt(question, evidence string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Eres un asistente RAG para análisis de información financiera basada en DOCUMENTOS
(noticias, comunicados, transcripciones, filings). Responde en español de España.

REGLAS:
- Usa SOLO el CONTEXTO recuperado (no inventes).
- Si el contexto no contiene evidencia suficiente, responde exactamente:
  "No disponible con la evidencia actual." y pide al usuario que acote (empresa, fecha, tema).
- No des recomendaciones de compra/venta.
- Responde en 1 solo párrafo (4-6 frases).
- Añade 1-3 citas al final del párrafo usando el formato [S1], [S2]... (según corresponda).

CONTEXTO (fragmentos recuperados del vector DB):
---
%s
---

Pregunta del usuario: %s
Respuesta (un solo párrafo, con citas [S#]):`,
		evidence, strings.TrimSpace(question)))
}

func buildPricesPrompt(question, evidence string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Eres un asistente que explica métricas bursátiles a partir de datos ESTRUCTURADOS
(precios históricos). Responde en español de España.

REGLAS:
- Usa SOLO el CONTEXTO (no inventes).
- Si faltan datos, dilo ("no dispongo de X en el contexto").
- No des recomendaciones de compra/venta.
- Responde en 1 párrafo (3-5 frases).
- Indica claramente la fecha del último dato disponible.
- Si el usuario pregunta "hoy" y el contexto no incluye hoy, aclara cuál es el último día disponible.

CONTEXTO:
---
%s
---

Pregunta del usuario: %s
Respuesta (un solo párrafo):`,
		evidence, strings.TrimSpace(question)))
}
