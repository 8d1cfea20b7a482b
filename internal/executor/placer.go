package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ethpilot/internal/decision"
	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

type PlacerConfig struct {
	InstID   string
	TdMode   string
	Leverage int
	Lots     LotConverter
}

// Placement describes an accepted opening order.
type Placement struct {
	OrderID   string
	ClientID  string
	Side      exchange.PositionSide
	SizeBase  decimal.Decimal
	Contracts string
}

// OrderPlacer 提交开仓市价单：单次尝试，不在内部重试。
type OrderPlacer struct {
	orders exchange.Orders
	cfg    PlacerConfig
	newID  func() string
}

func NewOrderPlacer(orders exchange.Orders, cfg PlacerConfig) *OrderPlacer {
	return &OrderPlacer{orders: orders, cfg: cfg, newID: newClientID}
}

// SideFor maps an open action to its position side.
func SideFor(action decision.Action) (exchange.PositionSide, error) {
	switch action {
	case decision.ActionOpenLong:
		return exchange.SideLong, nil
	case decision.ActionOpenShort:
		return exchange.SideShort, nil
	}
	return "", fmt.Errorf("invalid open action %q", action)
}

// Place submits one market order. On failure the error is classified and
// logged; the returned FailureKind is diagnostic only.
func (p *OrderPlacer) Place(ctx context.Context, trace logger.Trace, action decision.Action, size decimal.Decimal) (Placement, FailureKind, error) {
	side, err := SideFor(action)
	if err != nil {
		return Placement{}, FailureUnknown, err
	}
	contracts, err := p.cfg.Lots.ToContracts(size)
	if err != nil {
		kind := Classify(err)
		trace.Warnf("[下单] 跳过 kind=%s: %v", kind, err)
		return Placement{}, kind, err
	}
	req := exchange.MarketOrderRequest{
		InstID:   p.cfg.InstID,
		TdMode:   p.cfg.TdMode,
		Side:     side.OpenSide(),
		PosSide:  side,
		Size:     contracts,
		Leverage: p.cfg.Leverage,
		ClientID: p.newID(),
	}
	trace.Infof("[下单] %s %s %s ETH (%s张) lever=%d clOrdId=%s", req.Side, req.PosSide, size, contracts, req.Leverage, req.ClientID)
	ack, err := p.orders.PlaceMarketOrder(ctx, req)
	if err != nil {
		kind := Classify(err)
		trace.Errorf("[下单] 失败 kind=%s: %v", kind, err)
		if hint := kind.Hint(); hint != "" {
			trace.Errorf("[下单] %s", hint)
		}
		return Placement{}, kind, err
	}
	trace.Infof("[下单] 成功 ordId=%s", ack.ID)
	// SizeBase reflects the lot-rounded amount actually submitted.
	return Placement{
		OrderID:   ack.ID,
		ClientID:  req.ClientID,
		Side:      side,
		SizeBase:  p.cfg.Lots.ToBase(decimal.RequireFromString(contracts)),
		Contracts: contracts,
	}, FailureNone, nil
}

// IsLotError reports a size that never reached the exchange.
func IsLotError(err error) bool {
	return errors.Is(err, ErrBelowMinLot)
}

// newClientID yields a 32-char alphanumeric id accepted by clOrdId/algoClOrdId.
func newClientID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
