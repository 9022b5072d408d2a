package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// NewsItem is one headline as returned by the search endpoint. Any field may
// be empty; PublishTS is 0 when the feed omitted the publish time.
type NewsItem struct {
	Title     string
	Link      string
	Publisher string
	Summary   string
	PublishTS int64
}

type searchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Link                string `json:"link"`
		Publisher           string `json:"publisher"`
		Summary             string `json:"summary"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// Headlines returns up to limit recent news items for the ticker.
func (c *Client) Headlines(ctx context.Context, ticker string, limit int) ([]NewsItem, error) {
	params := url.Values{}
	params.Set("q", ticker)
	params.Set("newsCount", strconv.Itoa(limit))
	params.Set("quotesCount", "0")

	var parsed searchResponse
	if err := c.getJSON(ctx, buildURL(c.searchURL, params), &parsed); err != nil {
		return nil, fmt.Errorf("news %s: %w", ticker, err)
	}

	items := make([]NewsItem, 0, len(parsed.News))
	for _, n := range parsed.News {
		if len(items) >= limit {
			break
		}
		items = append(items, NewsItem{
			Title:     n.Title,
			Link:      n.Link,
			Publisher: n.Publisher,
			Summary:   n.Summary,
			PublishTS: n.ProviderPublishTime,
		})
	}
	return items, nil
}
