package okx

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"ethpilot/internal/market"
)

const (
	pathCandles = "/api/v5/market/candles"
	pathTicker  = "/api/v5/market/ticker"

	maxCandleLimit = 300
)

// FetchHistory returns candles oldest first (OKX answers newest first).
func (c *Client) FetchHistory(ctx context.Context, instID, bar string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 4
	}
	if limit > maxCandleLimit {
		limit = maxCandleLimit
	}
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("bar", bar)
	q.Set("limit", strconv.Itoa(limit))
	data, err := c.get(ctx, pathCandles, q)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s %s: %w", instID, bar, err)
	}
	rows := data.Array()
	out := make([]market.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i].Array()
		if len(row) < 6 {
			continue
		}
		out = append(out, market.Candle{
			OpenTime: row[0].Int(),
			Open:     row[1].Float(),
			High:     row[2].Float(),
			Low:      row[3].Float(),
			Close:    row[4].Float(),
			Volume:   row[5].Float(),
		})
	}
	return out, nil
}

func (c *Client) LastPrice(ctx context.Context, instID string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("instId", instID)
	data, err := c.get(ctx, pathTicker, q)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch ticker %s: %w", instID, err)
	}
	last := data.Get("0.last")
	if !last.Exists() {
		return decimal.Zero, fmt.Errorf("fetch ticker %s: empty data", instID)
	}
	return parseDecimal(last)
}

func parseDecimal(v gjson.Result) (decimal.Decimal, error) {
	s := v.String()
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// decimalOrZero is used for optional numeric fields.
func decimalOrZero(v gjson.Result) decimal.Decimal {
	d, err := parseDecimal(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}
