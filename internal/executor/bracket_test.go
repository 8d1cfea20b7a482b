package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

func testBracketConfig() BracketConfig {
	return BracketConfig{
		InstID:       "ETH-USDT-SWAP",
		TdMode:       "cross",
		MaxAttempts:  5,
		SettleDelay:  3 * time.Second,
		RetryDelay:   2 * time.Second,
		CancelPacing: 500 * time.Millisecond,
	}
}

func TestBracket_ProtectedOnFirstAttempt(t *testing.T) {
	orders := &fakeOrders{pending: visibleAll}
	rec := &sleepRecorder{}
	m := NewBracketOrderManager(orders, testBracketConfig(), rec.sleep)

	res := m.Place(context.Background(), logger.WithTrace("b1"), exchange.SideLong, "0.10", dec("3600"), dec("3400"))
	assert.Equal(t, BracketProtected, res.State)
	assert.Equal(t, 1, res.Attempts)
	require.NotNil(t, res.Order)
	assert.Equal(t, "algo-1", res.Order.TakeProfitID)
	assert.Equal(t, "algo-2", res.Order.StopLossID)
	assert.Equal(t, []BracketState{BracketIdle, BracketSubmitting, BracketSettling, BracketVerifying, BracketProtected}, res.Path)
	assert.Equal(t, []time.Duration{3 * time.Second}, rec.delays)

	require.Len(t, orders.placed, 2)
	tp, sl := orders.placed[0], orders.placed[1]
	assert.Equal(t, exchange.OrderSell, tp.Side)
	assert.Equal(t, exchange.SideLong, tp.PosSide)
	assert.True(t, tp.TakeProfit.Equal(dec("3600")))
	assert.True(t, tp.StopLoss.IsZero())
	assert.True(t, sl.StopLoss.Equal(dec("3400")))
	assert.NotEqual(t, tp.ClientID, sl.ClientID)
}

func TestBracket_NeverVisibleFailsAfterFiveAttempts(t *testing.T) {
	orders := &fakeOrders{pending: func([]string) ([]exchange.AlgoOrder, error) { return nil, nil }}
	rec := &sleepRecorder{}
	m := NewBracketOrderManager(orders, testBracketConfig(), rec.sleep)

	res := m.Place(context.Background(), logger.WithTrace("b2"), exchange.SideShort, "0.05", dec("3400"), dec("3600"))
	assert.Equal(t, BracketFailed, res.State)
	assert.Equal(t, 5, res.Attempts)
	assert.Nil(t, res.Order)
	assert.ErrorIs(t, res.LastErr, errBracketNotVisible)

	want := []time.Duration{}
	for i := 0; i < 5; i++ {
		want = append(want, 3*time.Second)
		if i < 4 {
			want = append(want, 2*time.Second)
		}
	}
	assert.Equal(t, want, rec.delays)
	assert.Equal(t, BracketFailed, res.Path[len(res.Path)-1])
	assert.Len(t, orders.placed, 10)
	// short brackets close with a buy
	assert.Equal(t, exchange.OrderBuy, orders.placed[0].Side)
}

func TestBracket_SubmitFailureSkipsSettleAndRecovers(t *testing.T) {
	orders := &fakeOrders{
		pending: visibleAll,
		placeErr: func(n int) error {
			if n == 2 {
				return errFake
			}
			return nil
		},
	}
	rec := &sleepRecorder{}
	m := NewBracketOrderManager(orders, testBracketConfig(), rec.sleep)

	res := m.Place(context.Background(), logger.WithTrace("b3"), exchange.SideLong, "0.10", dec("3600"), dec("3400"))
	assert.Equal(t, BracketProtected, res.State)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, rec.delays)
	assert.Equal(t, []BracketState{
		BracketIdle, BracketSubmitting, BracketRetrying,
		BracketSubmitting, BracketSettling, BracketVerifying, BracketProtected,
	}, res.Path)
}

func TestBracket_InvalidInputRejectedBeforeSubmission(t *testing.T) {
	orders := &fakeOrders{pending: visibleAll}
	rec := &sleepRecorder{}
	res := NewBracketOrderManager(orders, testBracketConfig(), rec.sleep).
		Place(context.Background(), logger.WithTrace("b4"), exchange.SideLong, "0.10", dec("0"), dec("3400"))
	assert.Equal(t, BracketIdle, res.State)
	assert.Equal(t, []BracketState{BracketIdle}, res.Path)
	assert.ErrorIs(t, res.LastErr, ErrInvalidBracket)
	assert.Nil(t, res.Order)
	assert.Equal(t, 0, res.Attempts)
	assert.Empty(t, orders.placed)
	assert.Empty(t, rec.delays)
}

func TestBracket_CancelAllContinuesPastFailures(t *testing.T) {
	orders := &fakeOrders{
		pending: func([]string) ([]exchange.AlgoOrder, error) {
			return []exchange.AlgoOrder{
				{AlgoID: "a1", InstID: "ETH-USDT-SWAP"},
				{AlgoID: "a2", InstID: "ETH-USDT-SWAP"},
				{AlgoID: "b1", InstID: "BTC-USDT-SWAP"},
				{AlgoID: "a3", InstID: "ETH-USDT-SWAP"},
			}, nil
		},
		cancelErr: map[string]error{"a2": errFake},
	}
	rec := &sleepRecorder{}
	m := NewBracketOrderManager(orders, testBracketConfig(), rec.sleep)

	n, err := m.CancelAll(context.Background(), logger.WithTrace("c1"), "ETH-USDT-SWAP")
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, errFake)
	assert.Equal(t, []string{"a1", "a3"}, orders.cancelled)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, rec.delays)
}

func TestBracket_CancelAllNothingPending(t *testing.T) {
	orders := &fakeOrders{}
	n, err := NewBracketOrderManager(orders, testBracketConfig(), nil).CancelAll(context.Background(), logger.WithTrace("c2"), "ETH-USDT-SWAP")
	assert.NoError(t, err)
	assert.Zero(t, n)
}
