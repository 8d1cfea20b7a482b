package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionSide string

const (
	SideFlat  PositionSide = "flat"
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
)

// OrderSide is the buy/sell direction of a single order.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// OpenSide: long opens with a buy, short with a sell.
func (p PositionSide) OpenSide() OrderSide {
	if p == SideShort {
		return OrderSell
	}
	return OrderBuy
}

// CloseSide is the order side that reduces a position of this side.
func (p PositionSide) CloseSide() OrderSide {
	if p == SideShort {
		return OrderBuy
	}
	return OrderSell
}

// Position 单一合约的持仓快照；Size 为交易所返回的张数（绝对值）。
type Position struct {
	InstID     string          `json:"inst_id"`
	Side       PositionSide    `json:"position_side"`
	Size       decimal.Decimal `json:"position_size"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Leverage   int             `json:"leverage"`
}

// Open reports a non-zero position.
func (p Position) Open() bool {
	return p.Side != SideFlat && p.Size.IsPositive()
}

// FlatPosition is the snapshot used when nothing is held.
func FlatPosition(instID string, leverage int) Position {
	return Position{InstID: instID, Side: SideFlat, Leverage: leverage}
}

type Balance struct {
	Available   decimal.Decimal `json:"available"`
	TotalEquity decimal.Decimal `json:"total_equity"`
	Currency    string          `json:"currency,omitempty"`
}

// Order 未成交的普通委托。
type Order struct {
	OrderID  string `json:"ord_id"`
	ClientID string `json:"cl_ord_id,omitempty"`
	InstID   string `json:"inst_id"`
	Side     string `json:"side"`
	PosSide  string `json:"pos_side"`
	OrdType  string `json:"ord_type"`
	Size     string `json:"sz"`
	State    string `json:"state"`
}

// AlgoOrder 待触发的条件单。
type AlgoOrder struct {
	AlgoID      string `json:"algo_id"`
	ClientID    string `json:"algo_cl_ord_id,omitempty"`
	InstID      string `json:"inst_id"`
	Side        string `json:"side"`
	PosSide     string `json:"pos_side"`
	Size        string `json:"sz"`
	TpTriggerPx string `json:"tp_trigger_px,omitempty"`
	SlTriggerPx string `json:"sl_trigger_px,omitempty"`
	State       string `json:"state"`
}

type MarketOrderRequest struct {
	InstID   string
	TdMode   string
	Side     OrderSide
	PosSide  PositionSide
	Size     string // contracts, already rounded to lot precision
	Leverage int
	ClientID string
}

// ConditionalOrderRequest carries exactly one of TakeProfit / StopLoss.
// Triggered orders execute at market.
type ConditionalOrderRequest struct {
	InstID     string
	TdMode     string
	Side       OrderSide
	PosSide    PositionSide
	Size       string
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
	ClientID   string
}

type OrderAck struct {
	ID       string
	ClientID string
}

// ClosedPosition 最近一次平仓记录。
type ClosedPosition struct {
	InstID      string
	Side        PositionSide
	RealizedPnL decimal.Decimal
	ClosedAt    time.Time
}
