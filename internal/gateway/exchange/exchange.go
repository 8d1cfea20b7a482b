// Package exchange defines the account/market gateway the trading loop talks to.
// Implementations live in sibling packages (okx).
package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"ethpilot/internal/market"
)

// MarketData 行情读取。
type MarketData interface {
	market.Source
	LastPrice(ctx context.Context, instID string) (decimal.Decimal, error)
}

// Account 账户与持仓读取。
type Account interface {
	Balance(ctx context.Context) (Balance, error)
	Position(ctx context.Context, instID string) (Position, error)
	// LastClosedPosition returns the most recent closed position; ok is false
	// when the history is empty.
	LastClosedPosition(ctx context.Context, instID string) (closed ClosedPosition, ok bool, err error)
}

// Orders 普通单与条件单（止盈止损）操作。
type Orders interface {
	PendingOrders(ctx context.Context, instID string) ([]Order, error)
	PendingAlgoOrders(ctx context.Context, instID string) ([]AlgoOrder, error)
	PlaceMarketOrder(ctx context.Context, req MarketOrderRequest) (OrderAck, error)
	PlaceConditionalOrder(ctx context.Context, req ConditionalOrderRequest) (OrderAck, error)
	CancelAlgoOrder(ctx context.Context, instID, algoID string) error
	ClosePosition(ctx context.Context, instID string, posSide PositionSide, tdMode string) error
}

// Gateway is the full surface consumed by the trading loop.
type Gateway interface {
	MarketData
	Account
	Orders
}
