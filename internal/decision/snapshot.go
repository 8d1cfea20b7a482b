package decision

import (
	"github.com/shopspring/decimal"

	"ethpilot/internal/analysis/indicator"
	"ethpilot/internal/gateway/exchange"
)

// KlineRow 交给模型的单根 K 线。
type KlineRow struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type MarketSnapshot struct {
	CurrentPrice decimal.Decimal   `json:"current_price"`
	Klines       []KlineRow        `json:"kline_5min"`
	Indicators   *indicator.Report `json:"indicators,omitempty"`
}

// AccountSnapshot 账户状态；LastProfit 来自会话，仅作上下文。
type AccountSnapshot struct {
	Available   decimal.Decimal `json:"available"`
	TotalEquity decimal.Decimal `json:"total_equity"`
	LastProfit  decimal.Decimal `json:"last_profit"`
}

// Snapshot is everything the oracle sees for one cycle.
type Snapshot struct {
	Market   MarketSnapshot    `json:"market_data"`
	Account  AccountSnapshot   `json:"account_status"`
	Position exchange.Position `json:"position_info"`
}
