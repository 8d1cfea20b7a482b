package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ethpilot/internal/agent/interfaces"
	"ethpilot/internal/analysis/indicator"
	"ethpilot/internal/decision"
	"ethpilot/internal/logger"
	"ethpilot/internal/market"
)

// PriceSource returns the last traded price of an instrument.
type PriceSource interface {
	LastPrice(ctx context.Context, instID string) (decimal.Decimal, error)
}

// IndicatorParams 指标窗口；Bar 为空时沿用 K 线周期。
type IndicatorParams struct {
	Enabled  bool
	Bar      string
	Lookback int
	Settings indicator.Settings
}

type ServiceParams struct {
	Klines     market.Source
	Prices     PriceSource
	InstID     string
	Bar        string
	Limit      int
	Indicators IndicatorParams
	Location   *time.Location
}

// Service implements interfaces.MarketService.
type Service struct {
	klines market.Source
	prices PriceSource
	instID string
	bar    string
	limit  int
	ind    IndicatorParams
	loc    *time.Location

	// 最近一次指标结果，供状态接口展示
	indicatorMu sync.RWMutex
	lastReport  *indicator.Report
}

func NewService(p ServiceParams) *Service {
	if p.Bar == "" {
		p.Bar = "5m"
	}
	if p.Limit <= 0 {
		p.Limit = 4
	}
	if p.Location == nil {
		p.Location = time.Local
	}
	return &Service{
		klines: p.Klines,
		prices: p.Prices,
		instID: p.InstID,
		bar:    p.Bar,
		limit:  p.Limit,
		ind:    p.Indicators,
		loc:    p.Location,
	}
}

// Ensure implementation
var _ interfaces.MarketService = (*Service)(nil)

func (s *Service) LatestPrice(ctx context.Context) (decimal.Decimal, error) {
	if s.prices == nil {
		return decimal.Zero, fmt.Errorf("no price source")
	}
	return s.prices.LastPrice(ctx, s.instID)
}

// Snapshot fails only when klines cannot be fetched. A ticker failure falls
// back to the last close; an indicator failure only drops the indicators.
func (s *Service) Snapshot(ctx context.Context, trace logger.Trace) (decision.MarketSnapshot, error) {
	candles, err := s.klines.FetchHistory(ctx, s.instID, s.bar, s.limit)
	if err != nil {
		trace.Errorf("[行情] 获取K线失败: %v", err)
		return decision.MarketSnapshot{}, fmt.Errorf("klines: %w", err)
	}
	trace.Infof("[行情] 获取K线数据成功: %d根", len(candles))
	snap := decision.MarketSnapshot{Klines: s.rows(candles)}

	price, err := s.LatestPrice(ctx)
	switch {
	case err == nil && price.IsPositive():
		snap.CurrentPrice = price
	default:
		last, ok := market.Candles(candles).Last()
		if !ok {
			return decision.MarketSnapshot{}, fmt.Errorf("no price: ticker %v and no klines", err)
		}
		trace.Warnf("[行情] 获取当前价格失败，使用最新收盘价 %.2f: %v", last.Close, err)
		snap.CurrentPrice = decimal.NewFromFloat(last.Close)
	}

	if s.ind.Enabled {
		snap.Indicators = s.indicators(ctx, trace, candles)
	}
	return snap, nil
}

func (s *Service) indicators(ctx context.Context, trace logger.Trace, base []market.Candle) *indicator.Report {
	bar := s.ind.Bar
	if bar == "" {
		bar = s.bar
	}
	candles := base
	if bar != s.bar || s.ind.Lookback > len(base) {
		var err error
		candles, err = s.klines.FetchHistory(ctx, s.instID, bar, s.ind.Lookback)
		if err != nil {
			trace.Warnf("[指标] 获取 %s K线失败，跳过指标: %v", bar, err)
			return nil
		}
	}
	rep, err := indicator.Compute(candles, bar, s.ind.Settings)
	if err != nil {
		trace.Warnf("[指标] 计算失败: %v", err)
		return nil
	}
	for _, w := range rep.Warnings {
		trace.Debugf("[指标] %s", w)
	}
	s.indicatorMu.Lock()
	s.lastReport = &rep
	s.indicatorMu.Unlock()
	return &rep
}

// LastIndicators returns the most recent indicator report, if any.
func (s *Service) LastIndicators() (indicator.Report, bool) {
	s.indicatorMu.RLock()
	defer s.indicatorMu.RUnlock()
	if s.lastReport == nil {
		return indicator.Report{}, false
	}
	return *s.lastReport, true
}

func (s *Service) rows(candles []market.Candle) []decision.KlineRow {
	out := make([]decision.KlineRow, 0, len(candles))
	for _, c := range candles {
		out = append(out, decision.KlineRow{
			Timestamp: c.TimeString(s.loc),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}
	return out
}
