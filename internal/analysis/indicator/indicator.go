package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"ethpilot/internal/market"
)

// Settings 描述计算指标所需的最小配置。
type Settings struct {
	EMAFast   int
	EMASlow   int
	RSIPeriod int
	ATRPeriod int
}

func (s Settings) withDefaults() Settings {
	if s.EMAFast <= 0 {
		s.EMAFast = 21
	}
	if s.EMASlow <= 0 {
		s.EMASlow = 50
	}
	if s.RSIPeriod <= 0 {
		s.RSIPeriod = 14
	}
	if s.ATRPeriod <= 0 {
		s.ATRPeriod = 14
	}
	return s
}

// Value 单个指标的最新值与状态。
type Value struct {
	Latest float64 `json:"latest"`
	State  string  `json:"state,omitempty"`
	Note   string  `json:"note,omitempty"`
}

// Report 汇总一组 K 线的指标输出，作为 market_data.indicators 交给模型。
type Report struct {
	Interval string           `json:"interval"`
	Count    int              `json:"count"`
	Values   map[string]Value `json:"values"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Compute 计算 EMA(fast/slow)、RSI、ATR。K 线不足的指标被跳过并记入 Warnings。
func Compute(candles []market.Candle, interval string, cfg Settings) (Report, error) {
	cfg = cfg.withDefaults()
	rep := Report{
		Interval: interval,
		Count:    len(candles),
		Values:   make(map[string]Value),
	}
	if len(candles) == 0 {
		return rep, fmt.Errorf("no candles")
	}
	series := market.Candles(candles)
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	lastClose := closes[len(closes)-1]

	for _, ema := range []struct {
		key    string
		period int
	}{{"ema_fast", cfg.EMAFast}, {"ema_slow", cfg.EMASlow}} {
		if len(closes) < ema.period {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s needs %d bars", ema.key, ema.period))
			continue
		}
		latest := lastValid(sanitizeSeries(talib.Ema(closes, ema.period)))
		rep.Values[ema.key] = Value{
			Latest: latest,
			State:  relativeState(lastClose, latest),
			Note:   fmt.Sprintf("EMA%d vs price", ema.period),
		}
	}

	if len(closes) > cfg.RSIPeriod {
		rsi := lastValid(sanitizeSeries(talib.Rsi(closes, cfg.RSIPeriod)))
		rep.Values["rsi"] = Value{
			Latest: rsi,
			State:  rsiState(rsi),
			Note:   fmt.Sprintf("period=%d", cfg.RSIPeriod),
		}
	} else {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("rsi needs %d bars", cfg.RSIPeriod+1))
	}

	if len(closes) > cfg.ATRPeriod {
		atr := lastValid(sanitizeSeries(talib.Atr(highs, lows, closes, cfg.ATRPeriod)))
		rep.Values["atr"] = Value{
			Latest: atr,
			State:  "volatility",
			Note:   fmt.Sprintf("period=%d", cfg.ATRPeriod),
		}
	} else {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("atr needs %d bars", cfg.ATRPeriod+1))
	}
	return rep, nil
}

func sanitizeSeries(src []float64) []float64 {
	out := make([]float64, 0, len(src))
	for _, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, round4(v))
	}
	return out
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func relativeState(price, ref float64) string {
	if ref == 0 {
		return "unknown"
	}
	switch {
	case price > ref*1.002:
		return "above"
	case price < ref*0.998:
		return "below"
	default:
		return "touch"
	}
}

func rsiState(v float64) string {
	switch {
	case v >= 70:
		return "overbought"
	case v <= 30:
		return "oversold"
	default:
		return "neutral"
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
