package engine

import (
	"github.com/shopspring/decimal"

	"ethpilot/internal/executor"
)

// Session 跨轮次的唯一可变状态，只由 CycleController 持有和修改。
type Session struct {
	// LastRealizedProfit is context for the oracle; it never drives control flow.
	LastRealizedProfit decimal.Decimal
	// ActiveBracket is set once a bracket verifies and cleared when the
	// position is seen closed.
	ActiveBracket *executor.BracketOrder
	// Holding marks a position opened by this process that has not yet been
	// seen closed, protected or not.
	Holding bool
}

func NewSession() *Session {
	return &Session{}
}
