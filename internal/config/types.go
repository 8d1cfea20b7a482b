package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config 是 ethpilot 的主配置载体。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Market    MarketConfig    `mapstructure:"market"`
	AI        AIConfig        `mapstructure:"ai"`
	Trading   TradingConfig   `mapstructure:"trading"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	LLMLog   string `mapstructure:"llm_log_path"`
	LLMDump  bool   `mapstructure:"llm_dump_payload"`
	HTTPAddr string `mapstructure:"http_addr"`
	// HTTPCORSOrigins 允许访问状态接口的前端来源。
	HTTPCORSOrigins []string `mapstructure:"http_cors_origins"`
}

// ExchangeConfig 描述 OKX REST 访问方式。
type ExchangeConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Passphrase     string `mapstructure:"passphrase"`
	Simulated      bool   `mapstructure:"simulated"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (e ExchangeConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// MarketConfig controls where klines come from and what is sent to the oracle.
type MarketConfig struct {
	Source         string          `mapstructure:"source"` // okx | binance
	BinanceRESTURL string          `mapstructure:"binance_rest_url"`
	KlineBar       string          `mapstructure:"kline_bar"`
	KlineLimit     int             `mapstructure:"kline_limit"`
	Indicators     IndicatorConfig `mapstructure:"indicators"`
}

type IndicatorConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Bar       string `mapstructure:"bar"`
	Lookback  int    `mapstructure:"lookback"`
	EMAFast   int    `mapstructure:"ema_fast"`
	EMASlow   int    `mapstructure:"ema_slow"`
	RSIPeriod int    `mapstructure:"rsi_period"`
	ATRPeriod int    `mapstructure:"atr_period"`
}

// AIConfig 描述决策模型（OpenAI 兼容接口）。
type AIConfig struct {
	Provider               string  `mapstructure:"provider"`
	APIURL                 string  `mapstructure:"api_url"`
	APIKey                 string  `mapstructure:"api_key"`
	Model                  string  `mapstructure:"model"`
	Temperature            float64 `mapstructure:"temperature"`
	MaxTokens              int     `mapstructure:"max_tokens"`
	TimeoutSeconds         int     `mapstructure:"timeout_seconds"`
	PromptPath             string  `mapstructure:"prompt_path"`
	BreakerThreshold       int     `mapstructure:"breaker_threshold"`
	BreakerCooldownSeconds int     `mapstructure:"breaker_cooldown_seconds"`
}

func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func (a AIConfig) BreakerCooldown() time.Duration {
	return time.Duration(a.BreakerCooldownSeconds) * time.Second
}

// TradingConfig 固定交易标的、杠杆与下单量边界。
type TradingConfig struct {
	InstID        string  `mapstructure:"inst_id"`
	TdMode        string  `mapstructure:"td_mode"`
	Leverage      int     `mapstructure:"leverage"`
	MinOrderSize  float64 `mapstructure:"min_order_size"`
	MaxOrderSize  float64 `mapstructure:"max_order_size"`
	ContractValue float64 `mapstructure:"contract_value"`
	MinLot        float64 `mapstructure:"min_lot"`
}

func (t TradingConfig) MinOrder() decimal.Decimal { return decimal.NewFromFloat(t.MinOrderSize) }
func (t TradingConfig) MaxOrder() decimal.Decimal { return decimal.NewFromFloat(t.MaxOrderSize) }
func (t TradingConfig) ContractMultiplier() decimal.Decimal {
	return decimal.NewFromFloat(t.ContractValue)
}
func (t TradingConfig) MinLotSize() decimal.Decimal { return decimal.NewFromFloat(t.MinLot) }

// ExecutionConfig 外部化的重试次数与等待时间。
type ExecutionConfig struct {
	// FillWaitSeconds: pause after the opening order before polling the fill.
	FillWaitSeconds int `mapstructure:"fill_wait_seconds"`
	// EntryAttempts/EntryDelaySeconds bound the fill-price polling.
	EntryAttempts     int `mapstructure:"entry_attempts"`
	EntryDelaySeconds int `mapstructure:"entry_delay_seconds"`
	// BracketAttempts is the max submit+verify rounds before giving up.
	BracketAttempts int `mapstructure:"bracket_attempts"`
	// BracketSettleSeconds: wait between submitting and verifying.
	BracketSettleSeconds int `mapstructure:"bracket_settle_seconds"`
	// BracketRetrySeconds: wait between two failed rounds.
	BracketRetrySeconds int `mapstructure:"bracket_retry_seconds"`
	// CancelPacingMillis spaces out per-order cancel calls.
	CancelPacingMillis int `mapstructure:"cancel_pacing_ms"`
}

func (e ExecutionConfig) FillWait() time.Duration {
	return time.Duration(e.FillWaitSeconds) * time.Second
}
func (e ExecutionConfig) EntryDelay() time.Duration {
	return time.Duration(e.EntryDelaySeconds) * time.Second
}
func (e ExecutionConfig) BracketSettle() time.Duration {
	return time.Duration(e.BracketSettleSeconds) * time.Second
}
func (e ExecutionConfig) BracketRetry() time.Duration {
	return time.Duration(e.BracketRetrySeconds) * time.Second
}
func (e ExecutionConfig) CancelPacing() time.Duration {
	return time.Duration(e.CancelPacingMillis) * time.Millisecond
}

// ScheduleConfig: intervals returned to the outer loop.
type ScheduleConfig struct {
	IdleIntervalSeconds    int `mapstructure:"idle_interval_seconds"`
	ExposedIntervalSeconds int `mapstructure:"exposed_interval_seconds"`
}

func (s ScheduleConfig) Idle() time.Duration {
	return time.Duration(s.IdleIntervalSeconds) * time.Second
}
func (s ScheduleConfig) Exposed() time.Duration {
	return time.Duration(s.ExposedIntervalSeconds) * time.Second
}

type JournalConfig struct {
	Path string `mapstructure:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
