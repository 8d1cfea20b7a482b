package okx

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"ethpilot/internal/gateway/exchange"
)

const (
	pathOrder             = "/api/v5/trade/order"
	pathOrdersPending     = "/api/v5/trade/orders-pending"
	pathOrderAlgo         = "/api/v5/trade/order-algo"
	pathOrdersAlgoPending = "/api/v5/trade/orders-algo-pending"
	pathCancelAlgos       = "/api/v5/trade/cancel-algos"
	pathClosePosition     = "/api/v5/trade/close-position"

	marketOrdPx = "-1"
)

func (c *Client) PendingOrders(ctx context.Context, instID string) ([]exchange.Order, error) {
	q := url.Values{}
	q.Set("instId", instID)
	data, err := c.get(ctx, pathOrdersPending, q)
	if err != nil {
		return nil, fmt.Errorf("fetch pending orders %s: %w", instID, err)
	}
	var out []exchange.Order
	data.ForEach(func(_, item gjson.Result) bool {
		out = append(out, exchange.Order{
			OrderID:  item.Get("ordId").String(),
			ClientID: item.Get("clOrdId").String(),
			InstID:   item.Get("instId").String(),
			Side:     item.Get("side").String(),
			PosSide:  item.Get("posSide").String(),
			OrdType:  item.Get("ordType").String(),
			Size:     item.Get("sz").String(),
			State:    item.Get("state").String(),
		})
		return true
	})
	return out, nil
}

func (c *Client) PendingAlgoOrders(ctx context.Context, instID string) ([]exchange.AlgoOrder, error) {
	q := url.Values{}
	q.Set("instType", "SWAP")
	q.Set("ordType", "conditional")
	q.Set("instId", instID)
	data, err := c.get(ctx, pathOrdersAlgoPending, q)
	if err != nil {
		return nil, fmt.Errorf("fetch pending algo orders %s: %w", instID, err)
	}
	var out []exchange.AlgoOrder
	data.ForEach(func(_, item gjson.Result) bool {
		out = append(out, exchange.AlgoOrder{
			AlgoID:      item.Get("algoId").String(),
			ClientID:    item.Get("algoClOrdId").String(),
			InstID:      item.Get("instId").String(),
			Side:        item.Get("side").String(),
			PosSide:     item.Get("posSide").String(),
			Size:        item.Get("sz").String(),
			TpTriggerPx: item.Get("tpTriggerPx").String(),
			SlTriggerPx: item.Get("slTriggerPx").String(),
			State:       item.Get("state").String(),
		})
		return true
	})
	return out, nil
}

func (c *Client) PlaceMarketOrder(ctx context.Context, req exchange.MarketOrderRequest) (exchange.OrderAck, error) {
	if err := c.ensureLeverage(ctx, req.InstID, req.TdMode, req.PosSide, req.Leverage); err != nil {
		return exchange.OrderAck{}, err
	}
	body := map[string]string{
		"instId":  req.InstID,
		"tdMode":  req.TdMode,
		"side":    string(req.Side),
		"posSide": string(req.PosSide),
		"ordType": "market",
		"sz":      req.Size,
	}
	if req.ClientID != "" {
		body["clOrdId"] = req.ClientID
	}
	data, err := c.post(ctx, pathOrder, body)
	if err != nil {
		return exchange.OrderAck{}, fmt.Errorf("place market order: %w", err)
	}
	return exchange.OrderAck{
		ID:       data.Get("0.ordId").String(),
		ClientID: data.Get("0.clOrdId").String(),
	}, nil
}

func (c *Client) PlaceConditionalOrder(ctx context.Context, req exchange.ConditionalOrderRequest) (exchange.OrderAck, error) {
	body := map[string]string{
		"instId":  req.InstID,
		"tdMode":  req.TdMode,
		"side":    string(req.Side),
		"posSide": string(req.PosSide),
		"ordType": "conditional",
		"sz":      req.Size,
	}
	switch {
	case req.TakeProfit.IsPositive():
		body["tpTriggerPx"] = req.TakeProfit.String()
		body["tpOrdPx"] = marketOrdPx
	case req.StopLoss.IsPositive():
		body["slTriggerPx"] = req.StopLoss.String()
		body["slOrdPx"] = marketOrdPx
	default:
		return exchange.OrderAck{}, fmt.Errorf("place conditional order: no trigger price")
	}
	if req.ClientID != "" {
		body["algoClOrdId"] = req.ClientID
	}
	data, err := c.post(ctx, pathOrderAlgo, body)
	if err != nil {
		return exchange.OrderAck{}, fmt.Errorf("place conditional order: %w", err)
	}
	id := data.Get("0.algoId").String()
	if id == "" {
		return exchange.OrderAck{}, fmt.Errorf("place conditional order: empty algoId")
	}
	return exchange.OrderAck{ID: id, ClientID: data.Get("0.algoClOrdId").String()}, nil
}

func (c *Client) CancelAlgoOrder(ctx context.Context, instID, algoID string) error {
	body := []map[string]string{{"algoId": algoID, "instId": instID}}
	if _, err := c.post(ctx, pathCancelAlgos, body); err != nil {
		return fmt.Errorf("cancel algo order %s: %w", algoID, err)
	}
	return nil
}

// ClosePosition flattens the whole position at market.
func (c *Client) ClosePosition(ctx context.Context, instID string, posSide exchange.PositionSide, tdMode string) error {
	body := map[string]string{
		"instId":  instID,
		"mgnMode": tdMode,
		"autoCxl": "true",
	}
	if posSide == exchange.SideLong || posSide == exchange.SideShort {
		body["posSide"] = string(posSide)
	}
	if _, err := c.post(ctx, pathClosePosition, body); err != nil {
		return fmt.Errorf("close position %s %s: %w", instID, posSide, err)
	}
	return nil
}
