package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// PriceRow is one trading day of OHLCV data.
type PriceRow struct {
	Date   time.Time
	Open   float64
	Close  float64
	High   float64
	Low    float64
	Volume float64
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailySeries returns daily bars for the ticker between start and end.
// Days with incomplete data (halts, partial rows) are skipped.
func (c *Client) DailySeries(ctx context.Context, ticker string, start, end time.Time) ([]PriceRow, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,split")

	var parsed chartResponse
	if err := c.getJSON(ctx, buildURL(c.chartURL+"/"+url.PathEscape(ticker), params), &parsed); err != nil {
		return nil, fmt.Errorf("chart %s: %w", ticker, err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart %s: %s: %s",
			ticker, parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	rows := make([]PriceRow, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open := at(quote.Open, i)
		closePx := at(quote.Close, i)
		high := at(quote.High, i)
		low := at(quote.Low, i)
		volume := at(quote.Volume, i)

		if open == nil || closePx == nil || high == nil || low == nil {
			c.logger.Debug("Skipping incomplete bar",
				zap.String("ticker", ticker), zap.Int64("ts", ts))
			continue
		}

		row := PriceRow{
			Date:  time.Unix(ts, 0).UTC(),
			Open:  *open,
			Close: *closePx,
			High:  *high,
			Low:   *low,
		}
		if volume != nil {
			row.Volume = *volume
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}
