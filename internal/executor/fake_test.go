package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ethpilot/internal/gateway/exchange"
)

var errFake = errors.New("fake failure")

// fakeOrders records calls and answers from programmable hooks.
type fakeOrders struct {
	mu         sync.Mutex
	seq        int
	market     []exchange.MarketOrderRequest
	placed     []exchange.ConditionalOrderRequest
	cancelled  []string
	marketErr  error
	placeErr   func(n int) error
	pending    func(placed []string) ([]exchange.AlgoOrder, error)
	cancelErr  map[string]error
	placedIDs  []string
	listCalled int
}

func (f *fakeOrders) PendingOrders(context.Context, string) ([]exchange.Order, error) {
	return nil, nil
}

func (f *fakeOrders) PendingAlgoOrders(context.Context, string) ([]exchange.AlgoOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalled++
	if f.pending == nil {
		return nil, nil
	}
	return f.pending(append([]string(nil), f.placedIDs...))
}

func (f *fakeOrders) PlaceMarketOrder(_ context.Context, req exchange.MarketOrderRequest) (exchange.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.market = append(f.market, req)
	if f.marketErr != nil {
		return exchange.OrderAck{}, f.marketErr
	}
	return exchange.OrderAck{ID: "ord-1", ClientID: req.ClientID}, nil
}

func (f *fakeOrders) PlaceConditionalOrder(_ context.Context, req exchange.ConditionalOrderRequest) (exchange.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		if err := f.placeErr(f.seq); err != nil {
			return exchange.OrderAck{}, err
		}
	}
	id := fmt.Sprintf("algo-%d", f.seq)
	f.placedIDs = append(f.placedIDs, id)
	return exchange.OrderAck{ID: id, ClientID: req.ClientID}, nil
}

func (f *fakeOrders) CancelAlgoOrder(_ context.Context, _ string, algoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.cancelErr[algoID]; err != nil {
		return err
	}
	f.cancelled = append(f.cancelled, algoID)
	return nil
}

func (f *fakeOrders) ClosePosition(context.Context, string, exchange.PositionSide, string) error {
	return nil
}

// visibleAll echoes every placed id back as pending.
func visibleAll(placed []string) ([]exchange.AlgoOrder, error) {
	out := make([]exchange.AlgoOrder, 0, len(placed))
	for _, id := range placed {
		out = append(out, exchange.AlgoOrder{AlgoID: id, InstID: "ETH-USDT-SWAP"})
	}
	return out, nil
}

type fakeAccount struct {
	positions []exchange.Position
	errs      []error
	calls     int
}

func (f *fakeAccount) Balance(context.Context) (exchange.Balance, error) {
	return exchange.Balance{}, nil
}

func (f *fakeAccount) Position(_ context.Context, instID string) (exchange.Position, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return exchange.Position{}, f.errs[i]
	}
	if i < len(f.positions) {
		return f.positions[i], nil
	}
	return exchange.FlatPosition(instID, 0), nil
}

func (f *fakeAccount) LastClosedPosition(context.Context, string) (exchange.ClosedPosition, bool, error) {
	return exchange.ClosedPosition{}, false, nil
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
