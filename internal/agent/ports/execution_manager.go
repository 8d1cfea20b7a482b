package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ethpilot/internal/agent/interfaces"
	"ethpilot/internal/decision"
	"ethpilot/internal/executor"
	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

// Decider turns a snapshot into a Decision. It never fails: oracle and parse
// problems become a hold decision. Raw is the model text, if any.
type Decider interface {
	Decide(ctx context.Context, trace logger.Trace, snap decision.Snapshot) (d decision.Decision, raw string)
}

// OrderPlacer submits the opening market order; single attempt.
type OrderPlacer interface {
	Place(ctx context.Context, trace logger.Trace, action decision.Action, size decimal.Decimal) (executor.Placement, executor.FailureKind, error)
}

// EntryResolver polls until the fill price is observable.
type EntryResolver interface {
	Resolve(ctx context.Context, trace logger.Trace) (decimal.Decimal, bool)
}

// BracketManager places, verifies and cancels take-profit/stop-loss pairs.
type BracketManager interface {
	Place(ctx context.Context, trace logger.Trace, side exchange.PositionSide, contracts string, tp, sl decimal.Decimal) executor.BracketResult
	CancelAll(ctx context.Context, trace logger.Trace, instID string) (int, error)
}

// CycleReport 一轮循环的完整结果，写入日志库并供状态接口展示。
type CycleReport struct {
	TraceID      string                   `json:"trace_id"`
	StartedAt    time.Time                `json:"started_at"`
	FinishedAt   time.Time                `json:"finished_at"`
	Exposure     interfaces.ExposureState `json:"exposure"`
	Decision     *decision.Decision       `json:"decision,omitempty"`
	Outcome      string                   `json:"outcome"`
	OrderID      string                   `json:"order_id,omitempty"`
	EntryPrice   decimal.Decimal          `json:"entry_price"`
	Bracket      executor.BracketState    `json:"bracket_state,omitempty"`
	Attempts     int                      `json:"bracket_attempts,omitempty"`
	LastProfit   decimal.Decimal          `json:"last_realized_profit"`
	NextInterval time.Duration            `json:"next_interval"`
	Error        string                   `json:"error,omitempty"`
}

// OrderEvent 订单级事件（开仓、止盈止损结果、撤单）。
type OrderEvent struct {
	TraceID string         `json:"trace_id"`
	Kind    string         `json:"kind"`
	InstID  string         `json:"inst_id"`
	Detail  map[string]any `json:"detail,omitempty"`
	At      time.Time      `json:"at"`
}

// Journal is append-only; the trading loop never reads it back.
type Journal interface {
	RecordCycle(ctx context.Context, r CycleReport) error
	RecordEvent(ctx context.Context, e OrderEvent) error
}
