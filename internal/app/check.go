package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ethpilot/internal/config"
	"ethpilot/internal/decision"
	"ethpilot/internal/executor"
	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

// DefaultCheckOffset 为交易自检挂止盈止损时距入场价的距离（USDT）。
var DefaultCheckOffset = decimal.NewFromInt(10)

type CheckOptions struct {
	// Trade 为 true 时真实开仓再平仓，多空各一次。
	Trade  bool
	Offset decimal.Decimal
	Sleep  func(time.Duration)
}

// CheckReport 汇总自检结果；Errors 为空代表全部通过。
type CheckReport struct {
	Candles  int
	Price    decimal.Decimal
	Account  decision.AccountSnapshot
	Position exchange.Position
	Decision decision.Decision
	Trades   []TradeCheck
	Errors   []error
}

type TradeCheck struct {
	Side       exchange.PositionSide
	OrderID    string
	EntryPrice decimal.Decimal
	Resolved   bool
	Bracket    executor.BracketState
	Cancelled  int
	Closed     bool
}

func (r CheckReport) Err() error {
	return errors.Join(r.Errors...)
}

// RunCheck 依次检查行情、账户、模型往返；opts.Trade 时再跑一次下单/止盈止损/撤单/平仓流程。
func RunCheck(ctx context.Context, cfg *config.Config, comps *Components, opts CheckOptions) CheckReport {
	if opts.Offset.IsZero() {
		opts.Offset = DefaultCheckOffset
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	trace := logger.WithTrace("check-" + uuid.NewString()[:8])
	var rep CheckReport

	trace.Infof("[自检] 1/3 行情数据")
	mkt, err := comps.Market.Snapshot(ctx, trace)
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Errorf("market data: %w", err))
	} else {
		rep.Candles = len(mkt.Klines)
		rep.Price = mkt.CurrentPrice
		trace.Infof("[自检] K 线 %d 根，最新价 %s", rep.Candles, rep.Price)
	}

	trace.Infof("[自检] 2/3 账户与持仓")
	acct, pos, err := comps.Positions.GetAccountSnapshot(ctx, trace)
	rep.Account, rep.Position = acct, pos
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Errorf("account data: %w", err))
	} else {
		trace.Infof("[自检] 可用 %s 权益 %s 持仓 %s %s", acct.Available, acct.TotalEquity, pos.Side, pos.Size)
	}

	trace.Infof("[自检] 3/3 模型往返")
	if len(rep.Errors) == 0 {
		d, _ := comps.Oracle.Decide(ctx, trace, decision.Snapshot{Market: mkt, Account: acct, Position: pos})
		rep.Decision = d
		if d.Source == decision.SourceFallback {
			rep.Errors = append(rep.Errors, fmt.Errorf("oracle: %s", d.Reason))
		} else {
			trace.Infof("[自检] 模型决策 %s (%s) via %s", d.Action, d.Confidence, d.Source)
		}
	} else {
		trace.Warnf("[自检] 数据不完整，跳过模型调用")
	}

	if !opts.Trade {
		return rep
	}
	if len(rep.Errors) > 0 {
		trace.Warnf("[自检] 基础检查未通过，跳过交易自检")
		return rep
	}
	for _, side := range []exchange.PositionSide{exchange.SideLong, exchange.SideShort} {
		tc, err := tradeRoundTrip(ctx, trace, cfg, comps, side, opts)
		rep.Trades = append(rep.Trades, tc)
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Errorf("trade %s: %w", side, err))
		}
	}
	return rep
}

func tradeRoundTrip(ctx context.Context, trace logger.Trace, cfg *config.Config, comps *Components, side exchange.PositionSide, opts CheckOptions) (TradeCheck, error) {
	tc := TradeCheck{Side: side}
	action := decision.ActionOpenLong
	if side == exchange.SideShort {
		action = decision.ActionOpenShort
	}
	tr := cfg.Trading
	trace.Infof("[交易自检] %s 最小仓位 %s ETH", side, tr.MinOrder())
	placement, _, err := comps.Placer.Place(ctx, trace, action, tr.MinOrder())
	if err != nil {
		return tc, fmt.Errorf("open: %w", err)
	}
	tc.OrderID = placement.OrderID
	opts.Sleep(cfg.Execution.FillWait())

	entry, ok := comps.Entry.Resolve(ctx, trace)
	tc.Resolved = ok
	if !ok {
		if entry, err = comps.Market.LatestPrice(ctx); err != nil {
			trace.Errorf("[交易自检] 无法获取价格: %v", err)
		}
	}
	tc.EntryPrice = entry

	var errs []error
	if entry.IsPositive() {
		tp, sl := entry.Add(opts.Offset), entry.Sub(opts.Offset)
		if side == exchange.SideShort {
			tp, sl = sl, tp
		}
		res := comps.Brackets.Place(ctx, trace, side, placement.Contracts, tp, sl)
		tc.Bracket = res.State
		if err := bracketError(res); err != nil {
			errs = append(errs, err)
		}
	} else {
		errs = append(errs, fmt.Errorf("no entry price, bracket skipped"))
	}

	n, err := comps.Brackets.CancelAll(ctx, trace, tr.InstID)
	tc.Cancelled = n
	if err != nil {
		errs = append(errs, fmt.Errorf("cancel: %w", err))
	}
	if err := comps.Gateway.ClosePosition(ctx, tr.InstID, side, tr.TdMode); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	} else {
		tc.Closed = true
		trace.Infof("[交易自检] %s 已平仓", side)
	}
	return tc, errors.Join(errs...)
}

func bracketError(res executor.BracketResult) error {
	if res.State == executor.BracketProtected {
		return nil
	}
	if res.LastErr == nil {
		return fmt.Errorf("bracket %s after %d attempts", res.State, res.Attempts)
	}
	return fmt.Errorf("bracket %s after %d attempts: %w", res.State, res.Attempts, res.LastErr)
}
