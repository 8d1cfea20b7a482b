package position

import (
	"context"

	"ethpilot/internal/agent/interfaces"
	"ethpilot/internal/logger"
)

const (
	sourceOrders   = "pending_orders"
	sourceBrackets = "algo_orders"
	sourcePosition = "position"
)

// Exposure queries all three sources even after one reports exposure, so the
// returned state is complete. A failed query is fail-open: logged as
// unchecked and counted as clear so the loop cannot deadlock.
func (s *Service) Exposure(ctx context.Context, trace logger.Trace) interfaces.ExposureState {
	var st interfaces.ExposureState

	orders, err := s.orders.PendingOrders(ctx, s.instID)
	if err != nil {
		st.Unchecked = append(st.Unchecked, sourceOrders)
		trace.Errorf("[敞口] 查询挂单失败，按无挂单处理: %v", err)
	} else if len(orders) > 0 {
		st.HasOpenOrders = true
		trace.Infof("[敞口] 存在 %d 个待成交订单", len(orders))
	}

	algos, err := s.orders.PendingAlgoOrders(ctx, s.instID)
	if err != nil {
		st.Unchecked = append(st.Unchecked, sourceBrackets)
		trace.Errorf("[敞口] 查询止盈止损单失败，按无条件单处理: %v", err)
	} else if len(algos) > 0 {
		st.HasBracketOrders = true
		trace.Infof("[敞口] 存在 %d 个止盈止损订单", len(algos))
	}

	pos, err := s.account.Position(ctx, s.instID)
	if err != nil {
		st.Unchecked = append(st.Unchecked, sourcePosition)
		trace.Errorf("[敞口] 查询持仓失败，按空仓处理: %v", err)
	} else if pos.Open() {
		st.HasPosition = true
		trace.Infof("[敞口] 存在持仓: %s %s 张", pos.Side, pos.Size)
	}

	switch {
	case st.Exposed():
	case len(st.Unchecked) > 0:
		trace.Warnf("[敞口] 未确认无敞口（%v 查询失败），继续执行", st.Unchecked)
	default:
		trace.Infof("[敞口] 无挂单、止盈止损单和持仓")
	}
	return st
}
