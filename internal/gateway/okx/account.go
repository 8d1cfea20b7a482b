package okx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"ethpilot/internal/gateway/exchange"
)

const (
	pathBalance          = "/api/v5/account/balance"
	pathPositions        = "/api/v5/account/positions"
	pathPositionsHistory = "/api/v5/account/positions-history"
	pathSetLeverage      = "/api/v5/account/set-leverage"
)

func (c *Client) Balance(ctx context.Context) (exchange.Balance, error) {
	data, err := c.get(ctx, pathBalance, nil)
	if err != nil {
		return exchange.Balance{}, fmt.Errorf("fetch balance: %w", err)
	}
	acct := data.Get("0")
	if !acct.Exists() {
		return exchange.Balance{}, fmt.Errorf("fetch balance: empty account data")
	}
	bal := exchange.Balance{TotalEquity: decimalOrZero(acct.Get("totalEq"))}
	if detail := acct.Get("details.0"); detail.Exists() {
		bal.Currency = detail.Get("ccy").String()
		bal.Available = decimalOrZero(detail.Get("availEq"))
		if bal.Available.IsZero() {
			bal.Available = decimalOrZero(detail.Get("availBal"))
		}
	}
	return bal, nil
}

// Position returns the first non-zero position on instID, or a flat snapshot.
// In net mode a negative pos means short; in long/short mode posSide says so.
func (c *Client) Position(ctx context.Context, instID string) (exchange.Position, error) {
	q := url.Values{}
	q.Set("instId", instID)
	data, err := c.get(ctx, pathPositions, q)
	if err != nil {
		return exchange.Position{}, fmt.Errorf("fetch position %s: %w", instID, err)
	}
	out := exchange.FlatPosition(instID, 0)
	data.ForEach(func(_, item gjson.Result) bool {
		pos := decimalOrZero(item.Get("pos"))
		if pos.IsZero() {
			return true
		}
		side := exchange.SideLong
		if pos.IsNegative() || item.Get("posSide").String() == string(exchange.SideShort) {
			side = exchange.SideShort
		}
		out = exchange.Position{
			InstID:     instID,
			Side:       side,
			Size:       pos.Abs(),
			EntryPrice: decimalOrZero(item.Get("avgPx")),
			Leverage:   int(item.Get("lever").Int()),
		}
		return false
	})
	return out, nil
}

func (c *Client) LastClosedPosition(ctx context.Context, instID string) (exchange.ClosedPosition, bool, error) {
	q := url.Values{}
	q.Set("instType", "SWAP")
	q.Set("instId", instID)
	q.Set("limit", "1")
	data, err := c.get(ctx, pathPositionsHistory, q)
	if err != nil {
		return exchange.ClosedPosition{}, false, fmt.Errorf("fetch positions history %s: %w", instID, err)
	}
	item := data.Get("0")
	if !item.Exists() {
		return exchange.ClosedPosition{}, false, nil
	}
	pnl, err := parseDecimal(item.Get("realizedPnl"))
	if err != nil {
		return exchange.ClosedPosition{}, false, fmt.Errorf("positions history %s: %w", instID, err)
	}
	closed := exchange.ClosedPosition{
		InstID:      instID,
		Side:        exchange.PositionSide(item.Get("direction").String()),
		RealizedPnL: pnl,
	}
	if ms := item.Get("uTime").Int(); ms > 0 {
		closed.ClosedAt = time.UnixMilli(ms).UTC()
	}
	return closed, true, nil
}

// ensureLeverage sets leverage once per instrument/side for the process.
func (c *Client) ensureLeverage(ctx context.Context, instID, tdMode string, posSide exchange.PositionSide, lever int) error {
	if lever <= 0 {
		return nil
	}
	key := instID + "|" + string(posSide)
	c.levMu.Lock()
	defer c.levMu.Unlock()
	if c.leverage[key] == lever {
		return nil
	}
	body := map[string]string{
		"instId":  instID,
		"lever":   fmt.Sprintf("%d", lever),
		"mgnMode": tdMode,
	}
	if posSide != "" && posSide != exchange.SideFlat {
		body["posSide"] = string(posSide)
	}
	if _, err := c.post(ctx, pathSetLeverage, body); err != nil {
		return fmt.Errorf("set leverage %s %dx: %w", instID, lever, err)
	}
	c.leverage[key] = lever
	return nil
}
