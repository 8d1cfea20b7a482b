package app

import (
	"fmt"
	"strings"

	"ethpilot/internal/config"
)

type StartupSummary struct {
	Trading   TradingSummary
	Market    MarketSummary
	Model     ModelSummary
	Execution config.ExecutionConfig
	Schedule  config.ScheduleConfig
	HTTPAddr  string
	Journal   string
	Telegram  bool
}

type TradingSummary struct {
	InstID    string
	TdMode    string
	Leverage  int
	OrderMin  string
	OrderMax  string
	Simulated bool
}

type MarketSummary struct {
	Source     string
	Bar        string
	Limit      int
	Indicators string
}

type ModelSummary struct {
	ID          string
	Temperature float64
	MaxTokens   int
	Breaker     string
}

func newStartupSummary(cfg *config.Config, comps *Components) *StartupSummary {
	ind := "disabled"
	if mi := cfg.Market.Indicators; mi.Enabled {
		ind = fmt.Sprintf("%s x%d (EMA%d/EMA%d RSI%d ATR%d)", mi.Bar, mi.Lookback, mi.EMAFast, mi.EMASlow, mi.RSIPeriod, mi.ATRPeriod)
	}
	modelID := cfg.AI.Model
	if comps != nil && comps.Oracle != nil {
		modelID = comps.Oracle.ProviderID()
	}
	return &StartupSummary{
		Trading: TradingSummary{
			InstID:    cfg.Trading.InstID,
			TdMode:    cfg.Trading.TdMode,
			Leverage:  cfg.Trading.Leverage,
			OrderMin:  cfg.Trading.MinOrder().String(),
			OrderMax:  cfg.Trading.MaxOrder().String(),
			Simulated: cfg.Exchange.Simulated,
		},
		Market: MarketSummary{
			Source:     cfg.Market.Source,
			Bar:        cfg.Market.KlineBar,
			Limit:      cfg.Market.KlineLimit,
			Indicators: ind,
		},
		Model: ModelSummary{
			ID:          modelID,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Breaker:     fmt.Sprintf("%d 次失败 / 冷却 %s", cfg.AI.BreakerThreshold, cfg.AI.BreakerCooldown()),
		},
		Execution: cfg.Execution,
		Schedule:  cfg.Schedule,
		HTTPAddr:  cfg.App.HTTPAddr,
		Journal:   cfg.Journal.Path,
		Telegram:  cfg.Notify.Telegram.Enabled,
	}
}

func (s *StartupSummary) Lines() []string {
	onOff := func(b bool) string {
		if b {
			return "开启"
		}
		return "关闭"
	}
	dash := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "-"
		}
		return v
	}
	ex := s.Execution
	return []string{
		"[交易 (TRADING)]",
		fmt.Sprintf("  标的: %s  模式: %s  杠杆: %dx  模拟盘: %s", s.Trading.InstID, s.Trading.TdMode, s.Trading.Leverage, onOff(s.Trading.Simulated)),
		fmt.Sprintf("  下单量: [%s, %s] ETH", s.Trading.OrderMin, s.Trading.OrderMax),
		"[行情 (MARKET)]",
		fmt.Sprintf("  来源: %s  周期: %s  根数: %d", s.Market.Source, s.Market.Bar, s.Market.Limit),
		fmt.Sprintf("  指标: %s", s.Market.Indicators),
		"[模型 (MODEL)]",
		fmt.Sprintf("  %s  temperature=%.2f max_tokens=%d", s.Model.ID, s.Model.Temperature, s.Model.MaxTokens),
		fmt.Sprintf("  熔断: %s", s.Model.Breaker),
		"[执行 (EXECUTION)]",
		fmt.Sprintf("  成交等待: %s  入场价轮询: %d 次 / %s", ex.FillWait(), ex.EntryAttempts, ex.EntryDelay()),
		fmt.Sprintf("  止盈止损: %d 轮  确认等待: %s  重试间隔: %s  撤单间隔: %s", ex.BracketAttempts, ex.BracketSettle(), ex.BracketRetry(), ex.CancelPacing()),
		fmt.Sprintf("  检查间隔: 空闲 %s / 持仓 %s", s.Schedule.Idle(), s.Schedule.Exposed()),
		"[其他 (MISC)]",
		fmt.Sprintf("  状态接口: %s  周期日志: %s  Telegram: %s", dash(s.HTTPAddr), dash(s.Journal), onOff(s.Telegram)),
	}
}

func (s *StartupSummary) Print() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Println(strings.Repeat("=", 80))
	for _, line := range s.Lines() {
		fmt.Println(line)
	}
	fmt.Println(strings.Repeat("=", 80))
}
