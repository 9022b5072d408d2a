// Package yahoo fetches daily quotes and headlines from the public Yahoo
// Finance endpoints, mirroring what the yfinance feeds expose.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	chartBaseURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	searchBaseURL = "https://query2.finance.yahoo.com/v1/finance/search"

	// Yahoo rejects requests without a browser-looking agent.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// Client talks to the Yahoo Finance chart and search endpoints.
type Client struct {
	httpClient *http.Client
	chartURL   string
	searchURL  string
	logger     *zap.Logger
}

// Option overrides client defaults.
type Option func(*Client)

// WithBaseURLs points the client at alternate endpoints (tests).
func WithBaseURLs(chartURL, searchURL string) Option {
	return func(c *Client) {
		c.chartURL = chartURL
		c.searchURL = searchURL
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Yahoo Finance client.
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		chartURL:   chartBaseURL,
		searchURL:  searchBaseURL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("yahoo status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func buildURL(base string, params url.Values) string {
	return base + "?" + params.Encode()
}
