package position

import (
	"context"
	"errors"
	"fmt"

	"ethpilot/internal/agent/interfaces"
	"ethpilot/internal/decision"
	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

// Service implements interfaces.PositionService over one instrument.
type Service struct {
	account  exchange.Account
	orders   exchange.Orders
	instID   string
	leverage int
}

// NewService creates a new PositionService.
func NewService(account exchange.Account, orders exchange.Orders, instID string, leverage int) *Service {
	return &Service{
		account:  account,
		orders:   orders,
		instID:   instID,
		leverage: leverage,
	}
}

// Ensure implementation
var _ interfaces.PositionService = (*Service)(nil)

// GetAccountSnapshot is best effort: a failed source is replaced by a zero
// balance or a flat position and reported in the joined error.
func (s *Service) GetAccountSnapshot(ctx context.Context, trace logger.Trace) (decision.AccountSnapshot, exchange.Position, error) {
	var errs []error
	snap := decision.AccountSnapshot{}
	bal, err := s.account.Balance(ctx)
	if err != nil {
		trace.Warnf("[账户] 获取余额失败: %v", err)
		errs = append(errs, fmt.Errorf("balance: %w", err))
	} else {
		snap.Available = bal.Available
		snap.TotalEquity = bal.TotalEquity
	}

	pos, err := s.account.Position(ctx, s.instID)
	if err != nil {
		trace.Warnf("[账户] 获取持仓失败: %v", err)
		errs = append(errs, fmt.Errorf("position: %w", err))
		pos = exchange.FlatPosition(s.instID, s.leverage)
	}
	if pos.Leverage <= 0 {
		pos.Leverage = s.leverage
	}
	trace.Infof("[账户] 可用=%s 权益=%s 持仓=%s %s", snap.Available, snap.TotalEquity, pos.Side, pos.Size)
	return snap, pos, errors.Join(errs...)
}
