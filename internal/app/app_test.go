package app

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethpilot/internal/agent/engine"
	"ethpilot/internal/config"
	"ethpilot/internal/gateway/binance"
	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/gateway/provider"
	"ethpilot/internal/market"
)

type fakeGateway struct {
	mu       sync.Mutex
	position exchange.Position
	placed   int
	algos    []exchange.AlgoOrder
	closed   []exchange.PositionSide
}

func (g *fakeGateway) FetchHistory(_ context.Context, _, _ string, limit int) ([]market.Candle, error) {
	out := make([]market.Candle, 0, limit)
	for i := 0; i < limit; i++ {
		p := 3500 + float64(i)
		out = append(out, market.Candle{OpenTime: int64(i+1) * 300_000, Open: p, High: p + 2, Low: p - 2, Close: p + 1, Volume: 10})
	}
	return out, nil
}

func (g *fakeGateway) LastPrice(context.Context, string) (decimal.Decimal, error) {
	return decimal.NewFromInt(3501), nil
}

func (g *fakeGateway) Balance(context.Context) (exchange.Balance, error) {
	return exchange.Balance{Available: decimal.NewFromInt(100), TotalEquity: decimal.NewFromInt(120)}, nil
}

func (g *fakeGateway) Position(_ context.Context, instID string) (exchange.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.position.Side == "" {
		return exchange.FlatPosition(instID, 100), nil
	}
	return g.position, nil
}

func (g *fakeGateway) LastClosedPosition(context.Context, string) (exchange.ClosedPosition, bool, error) {
	return exchange.ClosedPosition{}, false, nil
}

func (g *fakeGateway) PendingOrders(context.Context, string) ([]exchange.Order, error) {
	return nil, nil
}

func (g *fakeGateway) PendingAlgoOrders(context.Context, string) ([]exchange.AlgoOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]exchange.AlgoOrder(nil), g.algos...), nil
}

// PlaceMarketOrder fills instantly at 3500.
func (g *fakeGateway) PlaceMarketOrder(_ context.Context, req exchange.MarketOrderRequest) (exchange.OrderAck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.placed++
	size, _ := decimal.NewFromString(req.Size)
	g.position = exchange.Position{InstID: req.InstID, Side: req.PosSide, Size: size, EntryPrice: decimal.NewFromInt(3500), Leverage: req.Leverage}
	return exchange.OrderAck{ID: fmt.Sprintf("ord-%d", g.placed)}, nil
}

func (g *fakeGateway) PlaceConditionalOrder(_ context.Context, req exchange.ConditionalOrderRequest) (exchange.OrderAck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("algo-%d", len(g.algos)+1)
	g.algos = append(g.algos, exchange.AlgoOrder{AlgoID: id, InstID: req.InstID, TpTriggerPx: req.TakeProfit.String(), SlTriggerPx: req.StopLoss.String()})
	return exchange.OrderAck{ID: id}, nil
}

func (g *fakeGateway) CancelAlgoOrder(_ context.Context, _, algoID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, a := range g.algos {
		if a.AlgoID == algoID {
			g.algos = append(g.algos[:i], g.algos[i+1:]...)
			break
		}
	}
	return nil
}

func (g *fakeGateway) ClosePosition(_ context.Context, _ string, side exchange.PositionSide, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = append(g.closed, side)
	g.position = exchange.Position{}
	return nil
}

type stubProvider struct{ reply string }

func (stubProvider) ID() string { return "stub" }

func (s stubProvider) Call(context.Context, provider.ChatPayload) (string, error) {
	return s.reply, nil
}

const holdReply = `{"trading_decision":{"action":"hold","confidence_level":"low","reason":"range"},"position_management":{"position_size":0,"stop_loss_price":0,"take_profit_price":0}}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(writeTempConfig(t, "journal:\n  path: \"\"\n"))
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, gw *fakeGateway) *App {
	t.Helper()
	a, err := NewAppBuilder(testConfig(t),
		WithGateway(gw),
		WithProvider(stubProvider{reply: holdReply}),
		WithJournal(nil),
		WithSleep(func(time.Duration) {}),
	).Build(context.Background())
	require.NoError(t, err)
	return a
}

func TestApp_HoldCycleReturnsIdleInterval(t *testing.T) {
	gw := &fakeGateway{}
	a := newTestApp(t, gw)

	a.applyReload()
	next := a.Controller().RunCycle(context.Background())

	assert.Equal(t, 300*time.Second, next)
	rep, ok := a.Controller().LastReport()
	require.True(t, ok)
	assert.Equal(t, engine.OutcomeHold, rep.Outcome)
	assert.Zero(t, gw.placed)
}

func TestApp_ExposedCycleAndReload(t *testing.T) {
	gw := &fakeGateway{position: exchange.Position{Side: exchange.SideLong, Size: decimal.NewFromInt(1), EntryPrice: decimal.NewFromInt(3500), Leverage: 100}}
	a := newTestApp(t, gw)

	a.applyReload()
	assert.Equal(t, 30*time.Second, a.Controller().RunCycle(context.Background()))

	next := *a.cfg
	next.Schedule.ExposedIntervalSeconds = 45
	next.Trading.MaxOrderSize = 0.005
	a.holder.Store(&next)
	a.applyReload()

	assert.Equal(t, 45*time.Second, a.Controller().RunCycle(context.Background()))
	assert.Equal(t, "0.005", a.Components().Validator.Limits().MaxOrder.String())
}

func TestBuildKlineSource(t *testing.T) {
	gw := &fakeGateway{}
	src, err := buildKlineSource(config.MarketConfig{Source: "okx"}, gw)
	require.NoError(t, err)
	assert.Same(t, gw, src)

	src, err = buildKlineSource(config.MarketConfig{Source: "binance", BinanceRESTURL: "http://127.0.0.1:1"}, gw)
	require.NoError(t, err)
	assert.IsType(t, &binance.Source{}, src)
}

func TestStartupSummaryLines(t *testing.T) {
	a := newTestApp(t, &fakeGateway{})
	text := strings.Join(a.Summary.Lines(), "\n")
	assert.Contains(t, text, "ETH-USDT-SWAP")
	assert.Contains(t, text, "stub")
	assert.Contains(t, text, "空闲 5m0s / 持仓 30s")
}

func TestApp_RunSurvivesStatusAPIBindFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg, err := config.Load(writeTempConfig(t, fmt.Sprintf("app:\n  http_addr: %q\njournal:\n  path: \"\"\n", busy.Addr().String())))
	require.NoError(t, err)
	a, err := NewAppBuilder(cfg,
		WithGateway(&fakeGateway{}),
		WithProvider(stubProvider{reply: holdReply}),
		WithJournal(nil),
		WithSleep(func(time.Duration) {}),
	).Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a.liveHTTP)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	assert.Eventually(t, func() bool {
		_, ok := a.Controller().LastReport()
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("run stopped while the trading loop should keep going: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
