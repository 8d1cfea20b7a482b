package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

// EntryPriceResolver 开仓后轮询持仓，直到能读到成交均价。
type EntryPriceResolver struct {
	account  exchange.Account
	instID   string
	attempts int
	delay    time.Duration
	sleep    func(time.Duration)
}

func NewEntryPriceResolver(account exchange.Account, instID string, attempts int, delay time.Duration, sleep func(time.Duration)) *EntryPriceResolver {
	if attempts <= 0 {
		attempts = 5
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &EntryPriceResolver{account: account, instID: instID, attempts: attempts, delay: delay, sleep: sleep}
}

// Resolve returns the fill price, or ok=false after the attempts are spent.
// The delay only separates attempts.
func (r *EntryPriceResolver) Resolve(ctx context.Context, trace logger.Trace) (decimal.Decimal, bool) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		pos, err := r.account.Position(ctx, r.instID)
		switch {
		case err != nil:
			trace.Warnf("[开仓价] 获取失败 (尝试 %d/%d): %v", attempt, r.attempts, err)
		case pos.Size.IsPositive() && pos.EntryPrice.IsPositive():
			trace.Infof("[开仓价] %s (尝试 %d/%d)", pos.EntryPrice, attempt, r.attempts)
			return pos.EntryPrice, true
		default:
			trace.Infof("[开仓价] 未获取到有效开仓价格，重试 %d/%d", attempt, r.attempts)
		}
		if attempt < r.attempts {
			r.sleep(r.delay)
		}
	}
	return decimal.Zero, false
}
