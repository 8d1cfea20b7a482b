package engine

import (
	"ethpilot/internal/decision"
	"ethpilot/internal/executor"
	"ethpilot/internal/gateway/notifier"
	"ethpilot/internal/logger"

	"github.com/shopspring/decimal"
)

// Notifier handles external notifications (e.g. Telegram).
type Notifier interface {
	SendText(text string) error
}

type nopNotifier struct{}

func (nopNotifier) SendText(string) error { return nil }

func (c *CycleController) tradeEvent(trace logger.Trace, d decision.Decision, p executor.Placement, entry decimal.Decimal) notifier.TradeEvent {
	return notifier.TradeEvent{
		InstID:     c.instID,
		Side:       string(p.Side),
		SizeBase:   p.SizeBase,
		Contracts:  p.Contracts,
		EntryPrice: entry,
		TakeProfit: d.TakeProfit,
		StopLoss:   d.StopLoss,
		Reason:     d.Reason,
		TraceID:    trace.ID(),
		At:         c.now(),
	}
}

// notify is best effort; a failed push is only logged.
func (c *CycleController) notify(trace logger.Trace, msg notifier.StructuredMessage) {
	if err := c.notifier.SendText(msg.RenderMarkdown()); err != nil {
		trace.Warnf("Telegram push failed (%s): %v", msg.Title, err)
	}
}
