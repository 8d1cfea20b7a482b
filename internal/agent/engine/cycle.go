package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ethpilot/internal/agent/interfaces"
	"ethpilot/internal/agent/ports"
	"ethpilot/internal/decision"
	"ethpilot/internal/executor"
	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/gateway/notifier"
	"ethpilot/internal/logger"
)

// Outcome values recorded in CycleReport.Outcome.
const (
	OutcomeExposed        = "exposed"
	OutcomeSnapshotFailed = "snapshot_failed"
	OutcomeHold           = "hold"
	OutcomeZeroSize       = "zero_size"
	OutcomeOrderFailed    = "order_failed"
	OutcomeInvalidBracket = "bracket_skipped"
	OutcomeProtected      = "protected"
	OutcomeBracketFailed  = "bracket_failed"
	OutcomePanic          = "panic"
)

// Intervals 返回给外层循环的等待时间。
type Intervals struct {
	Idle    time.Duration
	Exposed time.Duration
}

type CycleParams struct {
	InstID    string
	Positions interfaces.PositionService
	Market    interfaces.MarketService
	Account   exchange.Account
	Decider   ports.Decider
	Validator *decision.Validator
	Placer    ports.OrderPlacer
	Entry     ports.EntryResolver
	Brackets  ports.BracketManager
	Journal   ports.Journal
	Notifier  Notifier
	Session   *Session
	Intervals Intervals
	FillWait  time.Duration
	Sleep     func(time.Duration)
	Now       func() time.Time
}

// CycleController 串联一轮完整流程并返回下次检查间隔；任何失败都不会逃出 RunCycle。
type CycleController struct {
	instID    string
	positions interfaces.PositionService
	market    interfaces.MarketService
	account   exchange.Account
	decider   ports.Decider
	validator *decision.Validator
	placer    ports.OrderPlacer
	entry     ports.EntryResolver
	brackets  ports.BracketManager
	journal   ports.Journal
	notifier  Notifier
	session   *Session

	intervals Intervals
	fillWait  time.Duration
	sleep     func(time.Duration)
	now       func() time.Time

	mu   sync.RWMutex
	last *ports.CycleReport
}

func NewCycleController(p CycleParams) *CycleController {
	if p.Session == nil {
		p.Session = NewSession()
	}
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Notifier == nil {
		p.Notifier = nopNotifier{}
	}
	return &CycleController{
		instID:    p.InstID,
		positions: p.Positions,
		market:    p.Market,
		account:   p.Account,
		decider:   p.Decider,
		validator: p.Validator,
		placer:    p.Placer,
		entry:     p.Entry,
		brackets:  p.Brackets,
		journal:   p.Journal,
		notifier:  p.Notifier,
		session:   p.Session,
		intervals: p.Intervals,
		fillWait:  p.FillWait,
		sleep:     p.Sleep,
		now:       p.Now,
	}
}

// SetIntervals swaps the intervals between cycles (config reload).
func (c *CycleController) SetIntervals(iv Intervals) {
	c.mu.Lock()
	c.intervals = iv
	c.mu.Unlock()
}

func (c *CycleController) currentIntervals() Intervals {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.intervals
}

// LastReport returns a copy of the most recent cycle report.
func (c *CycleController) LastReport() (ports.CycleReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return ports.CycleReport{}, false
	}
	return *c.last, true
}

// Session exposes the controller-owned session; callers must not mutate it
// while a cycle runs.
func (c *CycleController) Session() *Session {
	return c.session
}

// RunCycle runs exposure check → decision → execution and returns how long
// the scheduler should wait. It never panics and never returns an error.
func (c *CycleController) RunCycle(ctx context.Context) (next time.Duration) {
	iv := c.currentIntervals()
	trace := logger.WithTrace(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	rep := ports.CycleReport{TraceID: trace.ID(), StartedAt: c.now()}
	trace.Infof("开始动态交易周期检查")

	defer func() {
		if r := recover(); r != nil {
			trace.Errorf("动态交易周期执行失败 panic: %v\n%s", r, debug.Stack())
			rep.Outcome = OutcomePanic
			rep.Error = fmt.Sprint(r)
			next = iv.Idle
		}
		rep.NextInterval = next
		rep.FinishedAt = c.now()
		rep.LastProfit = c.session.LastRealizedProfit
		c.finish(ctx, trace, rep)
	}()

	rep.Exposure = c.positions.Exposure(ctx, trace)
	if rep.Exposure.Exposed() {
		trace.Infof("存在挂单、止盈止损单或持仓，跳过AI交互")
		rep.Outcome = OutcomeExposed
		return iv.Exposed
	}
	c.settleClosedPosition(ctx, trace, rep.Exposure)
	c.decideAndExecute(ctx, trace, &rep)
	return iv.Idle
}

// settleClosedPosition fetches realized PnL once the position we opened is
// gone. A failed lookup keeps the previous profit. Only a gate result with
// every source confirmed clear counts as gone.
func (c *CycleController) settleClosedPosition(ctx context.Context, trace logger.Trace, exp interfaces.ExposureState) {
	s := c.session
	if !s.Holding && s.ActiveBracket == nil {
		return
	}
	if len(exp.Unchecked) > 0 {
		trace.Warnf("[盈亏] 持仓状态未确认 (%s)，暂不结算", strings.Join(exp.Unchecked, ","))
		return
	}
	s.Holding = false
	s.ActiveBracket = nil
	closed, ok, err := c.account.LastClosedPosition(ctx, c.instID)
	switch {
	case err != nil:
		trace.Warnf("[盈亏] 获取平仓记录失败，沿用上次盈利 %s: %v", s.LastRealizedProfit, err)
	case !ok:
		trace.Warnf("[盈亏] 无平仓记录，沿用上次盈利 %s", s.LastRealizedProfit)
	default:
		s.LastRealizedProfit = closed.RealizedPnL
		trace.Infof("[盈亏] 上次策略盈利更新为 %s USDT (%s)", closed.RealizedPnL, closed.Side)
		c.event(ctx, trace, "position_closed", map[string]any{
			"side":         closed.Side,
			"realized_pnl": closed.RealizedPnL.String(),
			"closed_at":    closed.ClosedAt,
		})
	}
}

func (c *CycleController) decideAndExecute(ctx context.Context, trace logger.Trace, rep *ports.CycleReport) {
	trace.Infof("无挂单状态，进行AI决策")
	acct, pos, err := c.positions.GetAccountSnapshot(ctx, trace)
	if err != nil {
		trace.Warnf("账户快照不完整，继续: %v", err)
	}
	acct.LastProfit = c.session.LastRealizedProfit

	mkt, err := c.market.Snapshot(ctx, trace)
	if err != nil {
		trace.Errorf("收集市场数据失败: %v", err)
		rep.Outcome = OutcomeSnapshotFailed
		rep.Error = err.Error()
		return
	}
	trace.Infof("当前价格: %s USDT", mkt.CurrentPrice.StringFixed(2))

	d, _ := c.decider.Decide(ctx, trace, decision.Snapshot{Market: mkt, Account: acct, Position: pos})
	d = c.validator.Clamp(d)
	rep.Decision = &d
	trace.Infof("执行: %s, 仓位: %s ETH", d.Action, d.PositionSize.StringFixed(4))

	if !d.Action.IsOpen() {
		trace.Infof("保持空仓")
		rep.Outcome = OutcomeHold
		return
	}
	if d.PositionSize.IsZero() {
		trace.Infof("仓位为0，跳过开仓")
		rep.Outcome = OutcomeZeroSize
		return
	}
	c.execute(ctx, trace, rep, d, mkt.CurrentPrice)
}

func (c *CycleController) execute(ctx context.Context, trace logger.Trace, rep *ports.CycleReport, d decision.Decision, marketPrice decimal.Decimal) {
	placement, kind, err := c.placer.Place(ctx, trace, d.Action, d.PositionSize)
	if err != nil {
		rep.Outcome = OutcomeOrderFailed
		rep.Error = err.Error()
		c.event(ctx, trace, "order_failed", map[string]any{"action": d.Action, "size": d.PositionSize.String(), "kind": kind, "error": err.Error()})
		return
	}
	c.session.Holding = true
	rep.OrderID = placement.OrderID
	c.event(ctx, trace, "order_opened", map[string]any{
		"ord_id": placement.OrderID, "cl_ord_id": placement.ClientID,
		"side": placement.Side, "size": placement.SizeBase.String(), "contracts": placement.Contracts,
	})

	c.sleep(c.fillWait)
	entry, ok := c.entry.Resolve(ctx, trace)
	if !ok {
		trace.Errorf("无法获取开仓价格，使用当前价格 %s", marketPrice)
		entry = marketPrice
	}
	rep.EntryPrice = entry
	trace.Infof("实际开仓价格: %s USDT", entry.StringFixed(2))

	evt := c.tradeEvent(trace, d, placement, entry)
	c.notify(trace, notifier.OrderOpenedMessage(evt))

	if _, err := c.validator.Validate(d, entry); err != nil {
		trace.Errorf("止盈止损价格不合理，跳过止盈止损: %v", err)
		rep.Outcome = OutcomeInvalidBracket
		rep.Error = err.Error()
		evt.Reason = err.Error()
		c.notify(trace, notifier.BracketFailedMessage(evt))
		c.event(ctx, trace, "bracket_skipped", map[string]any{"error": err.Error()})
		return
	}

	res := c.brackets.Place(ctx, trace, placement.Side, placement.Contracts, d.TakeProfit, d.StopLoss)
	rep.Bracket = res.State
	rep.Attempts = res.Attempts
	evt.Attempts = res.Attempts
	if res.State == executor.BracketProtected && res.Order != nil {
		c.session.ActiveBracket = res.Order
		rep.Outcome = OutcomeProtected
		trace.Infof("✅ 止盈止损设置成功")
		c.notify(trace, notifier.BracketProtectedMessage(evt))
		c.event(ctx, trace, "bracket_protected", map[string]any{
			"tp_algo_id": res.Order.TakeProfitID, "sl_algo_id": res.Order.StopLossID, "attempts": res.Attempts,
		})
		return
	}
	rep.Outcome = OutcomeBracketFailed
	if res.LastErr != nil {
		rep.Error = res.LastErr.Error()
		evt.Reason = res.LastErr.Error()
	}
	trace.Errorf("❌ 止盈止损设置失败，持仓未受保护")
	c.notify(trace, notifier.BracketFailedMessage(evt))
	c.event(ctx, trace, "bracket_failed", map[string]any{"attempts": res.Attempts, "error": rep.Error})
}

func (c *CycleController) finish(ctx context.Context, trace logger.Trace, rep ports.CycleReport) {
	c.mu.Lock()
	c.last = &rep
	c.mu.Unlock()
	if c.journal != nil {
		if err := c.journal.RecordCycle(ctx, rep); err != nil {
			trace.Warnf("写入周期日志失败: %v", err)
		}
	}
	trace.Infof("周期完成 outcome=%s，等待 %s 后继续检查", rep.Outcome, rep.NextInterval)
}

func (c *CycleController) event(ctx context.Context, trace logger.Trace, kind string, detail map[string]any) {
	if c.journal == nil {
		return
	}
	e := ports.OrderEvent{TraceID: trace.ID(), Kind: kind, InstID: c.instID, Detail: detail, At: c.now()}
	if err := c.journal.RecordEvent(ctx, e); err != nil {
		trace.Warnf("写入订单事件失败 kind=%s: %v", kind, err)
	}
}
