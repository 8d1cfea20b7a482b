package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"ethpilot/internal/decision"
	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

// ExposureState 由三个独立来源推导，不做存储。
type ExposureState struct {
	HasOpenOrders    bool `json:"has_open_orders"`
	HasBracketOrders bool `json:"has_bracket_orders"`
	HasPosition      bool `json:"has_position"`
	// Unchecked names the sources whose query failed and were counted as clear.
	Unchecked []string `json:"unchecked,omitempty"`
}

// Exposed reports whether any source is non-empty.
func (e ExposureState) Exposed() bool {
	return e.HasOpenOrders || e.HasBracketOrders || e.HasPosition
}

// PositionService manages account balance, positions and the exposure gate.
type PositionService interface {
	// Exposure never fails: a source that cannot be queried counts as clear.
	Exposure(ctx context.Context, trace logger.Trace) ExposureState

	// GetAccountSnapshot returns balance and the current position.
	GetAccountSnapshot(ctx context.Context, trace logger.Trace) (decision.AccountSnapshot, exchange.Position, error)
}

// MarketService manages market data (K-lines, prices, indicators).
type MarketService interface {
	// Snapshot fetches klines, the last price and optional indicators.
	Snapshot(ctx context.Context, trace logger.Trace) (decision.MarketSnapshot, error)

	// LatestPrice returns the most recent traded price.
	LatestPrice(ctx context.Context) (decimal.Decimal, error)
}
