package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethpilot/internal/market"
)

func rampCandles(n int, start, step float64) []market.Candle {
	out := make([]market.Candle, n)
	price := start
	for i := range out {
		out[i] = market.Candle{
			OpenTime: int64(i) * 300_000,
			Open:     price,
			High:     price + 2,
			Low:      price - 2,
			Close:    price + step,
			Volume:   100,
		}
		price += step
	}
	return out
}

func TestCompute_UptrendStates(t *testing.T) {
	rep, err := Compute(rampCandles(80, 3000, 10), "5m", Settings{EMAFast: 9, EMASlow: 21})
	require.NoError(t, err)
	assert.Empty(t, rep.Warnings)
	assert.Equal(t, 80, rep.Count)
	assert.Equal(t, "above", rep.Values["ema_fast"].State)
	assert.Equal(t, "overbought", rep.Values["rsi"].State)
	assert.InDelta(t, 4.0, rep.Values["atr"].Latest, 0.5)
}

func TestCompute_ShortWindowSkipsIndicators(t *testing.T) {
	rep, err := Compute(rampCandles(10, 3000, -1), "5m", Settings{EMAFast: 5, EMASlow: 50})
	require.NoError(t, err)
	_, hasSlow := rep.Values["ema_slow"]
	assert.False(t, hasSlow)
	assert.Contains(t, rep.Values, "ema_fast")
	assert.Len(t, rep.Warnings, 3)
}

func TestCompute_Empty(t *testing.T) {
	_, err := Compute(nil, "5m", Settings{})
	assert.Error(t, err)
}
