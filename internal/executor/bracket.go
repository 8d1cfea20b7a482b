package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

type BracketState string

const (
	BracketIdle       BracketState = "idle"
	BracketSubmitting BracketState = "submitting"
	BracketSettling   BracketState = "settling"
	BracketVerifying  BracketState = "verifying"
	BracketRetrying   BracketState = "retrying"
	BracketProtected  BracketState = "protected"
	BracketFailed     BracketState = "failed"
)

// BracketOrder 一对止盈/止损条件单，属于当前持仓。
type BracketOrder struct {
	TakeProfitID    string                `json:"take_profit_id"`
	StopLossID      string                `json:"stop_loss_id"`
	TakeProfitPrice decimal.Decimal       `json:"take_profit_price"`
	StopLossPrice   decimal.Decimal       `json:"stop_loss_price"`
	Side            exchange.PositionSide `json:"side"`
	Contracts       string                `json:"contracts"`
}

// BracketResult: once submission starts, State ends as BracketProtected or
// BracketFailed (after exactly MaxAttempts). Input rejected up front leaves
// State at BracketIdle with Attempts 0 and LastErr wrapping ErrInvalidBracket.
type BracketResult struct {
	State    BracketState
	Attempts int
	Order    *BracketOrder
	// Path lists every state visited, starting at idle.
	Path    []BracketState
	LastErr error
}

type BracketConfig struct {
	InstID       string
	TdMode       string
	MaxAttempts  int
	SettleDelay  time.Duration
	RetryDelay   time.Duration
	CancelPacing time.Duration
}

func (c BracketConfig) withDefaults() BracketConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	return c
}

var errBracketNotVisible = errors.New("bracket orders not visible in pending algo orders")

// ErrInvalidBracket: non-positive prices or an unknown side; nothing is submitted.
var ErrInvalidBracket = errors.New("invalid bracket")

// BracketOrderManager 下止盈止损单并校验，失败按固定间隔重试，直到受保护或耗尽次数。
type BracketOrderManager struct {
	orders exchange.Orders
	cfg    BracketConfig
	sleep  func(time.Duration)
	newID  func() string
}

func NewBracketOrderManager(orders exchange.Orders, cfg BracketConfig, sleep func(time.Duration)) *BracketOrderManager {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &BracketOrderManager{orders: orders, cfg: cfg.withDefaults(), sleep: sleep, newID: newClientID}
}

type bracketRun struct {
	trace  logger.Trace
	result BracketResult
}

func (r *bracketRun) enter(s BracketState) {
	r.result.State = s
	r.result.Path = append(r.result.Path, s)
	r.trace.Debugf("[止盈止损] -> %s (尝试 %d)", s, r.result.Attempts)
}

// Place drives Idle → Submitting → Settling → Verifying → Protected, looping
// through Retrying until MaxAttempts is spent, then Failed. Orders from a
// failed attempt are not cancelled before the next submission.
func (m *BracketOrderManager) Place(ctx context.Context, trace logger.Trace, side exchange.PositionSide, contracts string, tp, sl decimal.Decimal) BracketResult {
	run := &bracketRun{trace: trace}
	run.enter(BracketIdle)
	if !tp.IsPositive() || !sl.IsPositive() || (side != exchange.SideLong && side != exchange.SideShort) {
		run.result.LastErr = fmt.Errorf("%w: side=%s tp=%s sl=%s", ErrInvalidBracket, side, tp, sl)
		trace.Errorf("[止盈止损] %v", run.result.LastErr)
		return run.result
	}
	maxAttempts := m.cfg.MaxAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		run.result.Attempts = attempt
		trace.Infof("[止盈止损] 尝试 %d/%d 止盈=%s 止损=%s", attempt, maxAttempts, tp, sl)

		run.enter(BracketSubmitting)
		order, err := m.submit(ctx, side, contracts, tp, sl)
		if err == nil {
			trace.Infof("[止盈止损] 已提交 tp=%s sl=%s", order.TakeProfitID, order.StopLossID)
			run.enter(BracketSettling)
			m.sleep(m.cfg.SettleDelay)

			run.enter(BracketVerifying)
			err = m.verify(ctx, order)
			if err == nil {
				run.enter(BracketProtected)
				run.result.Order = &order
				trace.Infof("[止盈止损] 验证成功")
				return run.result
			}
		}
		run.result.LastErr = err
		trace.Warnf("[止盈止损] 尝试 %d/%d 失败: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			run.enter(BracketRetrying)
			m.sleep(m.cfg.RetryDelay)
		}
	}
	run.enter(BracketFailed)
	trace.Errorf("[止盈止损] 达到最大重试次数 %d，最终失败，持仓未受保护", maxAttempts)
	return run.result
}

func (m *BracketOrderManager) submit(ctx context.Context, side exchange.PositionSide, contracts string, tp, sl decimal.Decimal) (BracketOrder, error) {
	base := exchange.ConditionalOrderRequest{
		InstID:  m.cfg.InstID,
		TdMode:  m.cfg.TdMode,
		Side:    side.CloseSide(),
		PosSide: side,
		Size:    contracts,
	}
	tpReq := base
	tpReq.TakeProfit = tp
	tpReq.ClientID = m.newID()
	tpAck, err := m.orders.PlaceConditionalOrder(ctx, tpReq)
	if err != nil {
		return BracketOrder{}, fmt.Errorf("take-profit: %w", err)
	}
	slReq := base
	slReq.StopLoss = sl
	slReq.ClientID = m.newID()
	slAck, err := m.orders.PlaceConditionalOrder(ctx, slReq)
	if err != nil {
		return BracketOrder{}, fmt.Errorf("stop-loss (take-profit %s already placed): %w", tpAck.ID, err)
	}
	return BracketOrder{
		TakeProfitID:    tpAck.ID,
		StopLossID:      slAck.ID,
		TakeProfitPrice: tp,
		StopLossPrice:   sl,
		Side:            side,
		Contracts:       contracts,
	}, nil
}

func (m *BracketOrderManager) verify(ctx context.Context, order BracketOrder) error {
	pending, err := m.orders.PendingAlgoOrders(ctx, m.cfg.InstID)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	var tpFound, slFound bool
	for _, o := range pending {
		switch o.AlgoID {
		case order.TakeProfitID:
			tpFound = true
		case order.StopLossID:
			slFound = true
		}
	}
	if !tpFound || !slFound {
		return fmt.Errorf("%w (tp=%t sl=%t)", errBracketNotVisible, tpFound, slFound)
	}
	return nil
}

// CancelAll cancels every pending conditional order on instID one by one,
// pacing the calls. A single failure does not stop the rest; the returned
// error joins all failures and is nil only when every target was cancelled.
func (m *BracketOrderManager) CancelAll(ctx context.Context, trace logger.Trace, instID string) (int, error) {
	pending, err := m.orders.PendingAlgoOrders(ctx, instID)
	if err != nil {
		trace.Errorf("[撤单] 获取条件单失败: %v", err)
		return 0, fmt.Errorf("list algo orders: %w", err)
	}
	targets := make([]exchange.AlgoOrder, 0, len(pending))
	for _, o := range pending {
		if o.InstID == "" || o.InstID == instID {
			targets = append(targets, o)
		}
	}
	if len(targets) == 0 {
		trace.Infof("[撤单] 没有找到 %s 的待处理条件单", instID)
		return 0, nil
	}
	trace.Infof("[撤单] 找到 %d 个条件单，开始撤销", len(targets))
	var (
		cancelled int
		errs      []error
	)
	for i, o := range targets {
		if i > 0 {
			m.sleep(m.cfg.CancelPacing)
		}
		if err := m.orders.CancelAlgoOrder(ctx, instID, o.AlgoID); err != nil {
			trace.Errorf("[撤单] %s 失败: %v", o.AlgoID, err)
			errs = append(errs, fmt.Errorf("cancel %s: %w", o.AlgoID, err))
			continue
		}
		cancelled++
	}
	trace.Infof("[撤单] 成功撤销 %d/%d", cancelled, len(targets))
	return cancelled, errors.Join(errs...)
}
