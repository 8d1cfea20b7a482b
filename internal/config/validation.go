package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Execution.validate(); err != nil {
		return err
	}
	if err := c.Schedule.validate(); err != nil {
		return err
	}
	return c.Notify.validate()
}

func (e *ExchangeConfig) validate() error {
	if e.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if e.TimeoutSeconds <= 0 {
		return fmt.Errorf("exchange.timeout_seconds must be > 0")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	switch m.Source {
	case "okx", "binance":
	default:
		return fmt.Errorf("market.source must be okx or binance, got %q", m.Source)
	}
	if m.KlineLimit <= 0 {
		return fmt.Errorf("market.kline_limit must be > 0")
	}
	if m.Indicators.Enabled && m.Indicators.Lookback <= m.Indicators.EMASlow {
		return fmt.Errorf("market.indicators.lookback (%d) must exceed ema_slow (%d)", m.Indicators.Lookback, m.Indicators.EMASlow)
	}
	return nil
}

func (a *AIConfig) validate() error {
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("ai.model is required")
	}
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("ai.api_url is required")
	}
	if a.BreakerThreshold < 0 {
		return fmt.Errorf("ai.breaker_threshold must be >= 0")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.InstID == "" {
		return fmt.Errorf("trading.inst_id is required")
	}
	if t.Leverage <= 0 {
		return fmt.Errorf("trading.leverage must be > 0")
	}
	if t.MinOrderSize <= 0 || t.MaxOrderSize <= 0 {
		return fmt.Errorf("trading.min_order_size and max_order_size must be > 0")
	}
	if t.MinOrderSize > t.MaxOrderSize {
		return fmt.Errorf("trading.min_order_size (%v) exceeds max_order_size (%v)", t.MinOrderSize, t.MaxOrderSize)
	}
	if t.ContractValue <= 0 {
		return fmt.Errorf("trading.contract_value must be > 0")
	}
	if t.MinLot <= 0 {
		return fmt.Errorf("trading.min_lot must be > 0")
	}
	return nil
}

func (e *ExecutionConfig) validate() error {
	if e.EntryAttempts <= 0 {
		return fmt.Errorf("execution.entry_attempts must be > 0")
	}
	if e.BracketAttempts <= 0 {
		return fmt.Errorf("execution.bracket_attempts must be > 0")
	}
	if e.FillWaitSeconds < 0 || e.EntryDelaySeconds < 0 || e.BracketSettleSeconds < 0 ||
		e.BracketRetrySeconds < 0 || e.CancelPacingMillis < 0 {
		return fmt.Errorf("execution delays must be >= 0")
	}
	return nil
}

func (s *ScheduleConfig) validate() error {
	if s.IdleIntervalSeconds <= 0 || s.ExposedIntervalSeconds <= 0 {
		return fmt.Errorf("schedule intervals must be > 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if tg.Enabled && (strings.TrimSpace(tg.BotToken) == "" || strings.TrimSpace(tg.ChatID) == "") {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
