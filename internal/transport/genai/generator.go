// Package genai provides answer generation via the Gemini API.
package genai

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/djia-rag/internal/domain"
)

// Generator produces grounded answers with Gemini.
type Generator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// NewGenerator creates a Gemini chat provider.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Generator{
		client: client,
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

// Generate runs a single-turn completion over the given prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.2)
	resp, err := g.client.Models.GenerateContent(
		ctx, g.model, genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: &temperature},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w: %w", domain.ErrLLMProviderError, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty gemini response: %w", domain.ErrLLMProviderError)
	}
	return text, nil
}
