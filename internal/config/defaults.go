package config

import (
	"strings"

	"ethpilot/internal/pkg/symbol"
)

// 默认值常量（与原始脚本的硬编码常量保持一致）
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultExchangeBaseURL = "https://www.okx.com"
	defaultExchangeTimeout = 10
	defaultMarketSource    = "okx"
	defaultBinanceREST     = "https://fapi.binance.com"
	defaultKlineBar        = "5m"
	defaultKlineLimit      = 4
	defaultIndicatorBar    = "30m"
	defaultIndicatorLook   = 120
	defaultEMAFast         = 21
	defaultEMASlow         = 55
	defaultRSIPeriod       = 14
	defaultATRPeriod       = 14
	defaultAIProvider      = "deepseek"
	defaultAIURL           = "https://api.deepseek.com/v1"
	defaultAIModel         = "deepseek-chat"
	defaultAITemperature   = 0.7
	defaultAIMaxTokens     = 2000
	defaultAITimeout       = 30
	defaultBreakerFailures = 3
	defaultBreakerCooldown = 600
	defaultInstID          = "ETH-USDT-SWAP"
	defaultTdMode          = "cross"
	defaultLeverage        = 100
	defaultMinOrderSize    = 0.001
	defaultMaxOrderSize    = 0.010
	defaultContractValue   = 0.1
	defaultMinLot          = 0.01
	defaultFillWait        = 5
	defaultEntryAttempts   = 5
	defaultEntryDelay      = 2
	defaultBracketAttempts = 5
	defaultBracketSettle   = 5
	defaultBracketRetry    = 5
	defaultCancelPacingMS  = 500
	defaultIdleInterval    = 300
	defaultExposedInterval = 30
	defaultJournalPath     = "data/journal.db"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.AI.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Execution.applyDefaults(keys)
	c.Schedule.applyDefaults(keys)
	c.Journal.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
	)
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("exchange.base_url", &e.BaseURL, defaultExchangeBaseURL),
		intFieldDefault("exchange.timeout_seconds", &e.TimeoutSeconds, defaultExchangeTimeout),
	)
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("market.source", &m.Source, defaultMarketSource),
		stringFieldDefault("market.binance_rest_url", &m.BinanceRESTURL, defaultBinanceREST),
		stringFieldDefault("market.kline_bar", &m.KlineBar, defaultKlineBar),
		intFieldDefault("market.kline_limit", &m.KlineLimit, defaultKlineLimit),
		stringFieldDefault("market.indicators.bar", &m.Indicators.Bar, defaultIndicatorBar),
		intFieldDefault("market.indicators.lookback", &m.Indicators.Lookback, defaultIndicatorLook),
		intFieldDefault("market.indicators.ema_fast", &m.Indicators.EMAFast, defaultEMAFast),
		intFieldDefault("market.indicators.ema_slow", &m.Indicators.EMASlow, defaultEMASlow),
		intFieldDefault("market.indicators.rsi_period", &m.Indicators.RSIPeriod, defaultRSIPeriod),
		intFieldDefault("market.indicators.atr_period", &m.Indicators.ATRPeriod, defaultATRPeriod),
	)
	m.Source = strings.ToLower(strings.TrimSpace(m.Source))
}

func (a *AIConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("ai.provider", &a.Provider, defaultAIProvider),
		stringFieldDefault("ai.api_url", &a.APIURL, defaultAIURL),
		stringFieldDefault("ai.model", &a.Model, defaultAIModel),
		fieldDefault{
			key:   "ai.temperature",
			need:  func() bool { return a.Temperature <= 0 },
			apply: func() { a.Temperature = defaultAITemperature },
		},
		intFieldDefault("ai.max_tokens", &a.MaxTokens, defaultAIMaxTokens),
		intFieldDefault("ai.timeout_seconds", &a.TimeoutSeconds, defaultAITimeout),
		intFieldDefault("ai.breaker_threshold", &a.BreakerThreshold, defaultBreakerFailures),
		intFieldDefault("ai.breaker_cooldown_seconds", &a.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("trading.inst_id", &t.InstID, defaultInstID),
		stringFieldDefault("trading.td_mode", &t.TdMode, defaultTdMode),
		intFieldDefault("trading.leverage", &t.Leverage, defaultLeverage),
		floatFieldDefault("trading.min_order_size", &t.MinOrderSize, defaultMinOrderSize),
		floatFieldDefault("trading.max_order_size", &t.MaxOrderSize, defaultMaxOrderSize),
		floatFieldDefault("trading.contract_value", &t.ContractValue, defaultContractValue),
		floatFieldDefault("trading.min_lot", &t.MinLot, defaultMinLot),
	)
	t.InstID = symbol.ToOKXSwap(t.InstID)
}

func (e *ExecutionConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("execution.fill_wait_seconds", &e.FillWaitSeconds, defaultFillWait),
		intFieldDefault("execution.entry_attempts", &e.EntryAttempts, defaultEntryAttempts),
		intFieldDefault("execution.entry_delay_seconds", &e.EntryDelaySeconds, defaultEntryDelay),
		intFieldDefault("execution.bracket_attempts", &e.BracketAttempts, defaultBracketAttempts),
		intFieldDefault("execution.bracket_settle_seconds", &e.BracketSettleSeconds, defaultBracketSettle),
		intFieldDefault("execution.bracket_retry_seconds", &e.BracketRetrySeconds, defaultBracketRetry),
		intFieldDefault("execution.cancel_pacing_ms", &e.CancelPacingMillis, defaultCancelPacingMS),
	)
}

func (s *ScheduleConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("schedule.idle_interval_seconds", &s.IdleIntervalSeconds, defaultIdleInterval),
		intFieldDefault("schedule.exposed_interval_seconds", &s.ExposedIntervalSeconds, defaultExposedInterval),
	)
}

func (j *JournalConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("journal.path", &j.Path, defaultJournalPath),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}
