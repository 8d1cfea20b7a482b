package decision

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Action 是模型允许给出的交易动作（只开仓，不平仓）。
type Action string

const (
	ActionHold      Action = "hold"
	ActionOpenLong  Action = "open_long"
	ActionOpenShort Action = "open_short"
)

func (a Action) Valid() bool {
	switch a {
	case ActionHold, ActionOpenLong, ActionOpenShort:
		return true
	}
	return false
}

// IsOpen reports whether the action opens a position.
func (a Action) IsOpen() bool {
	return a == ActionOpenLong || a == ActionOpenShort
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Source records which parsing tier produced a Decision.
type Source string

const (
	SourceDirect    Source = "direct"
	SourceShape     Source = "shape"
	SourceSpan      Source = "span"
	SourceHeuristic Source = "heuristic"
	SourceFallback  Source = "fallback"
)

// ParseFailureReason 是所有解析层都失败时的 reason 标记。
const ParseFailureReason = "AI响应解析失败，采用保守策略"

// Decision 单周期的结构化交易意图，每周期新建，不落库。
type Decision struct {
	Action       Action
	Confidence   Confidence
	Reason       string
	PositionSize decimal.Decimal
	StopLoss     decimal.Decimal
	TakeProfit   decimal.Decimal
	Source       Source
}

// Hold builds a zero-sized hold decision.
func Hold(confidence Confidence, reason string, src Source) Decision {
	return Decision{
		Action:     ActionHold,
		Confidence: confidence,
		Reason:     reason,
		Source:     src,
	}
}

// SafeDefault is returned when nothing usable could be extracted.
func SafeDefault() Decision {
	return Hold(ConfidenceLow, ParseFailureReason, SourceFallback)
}

type wireTrading struct {
	Action          string `json:"action"`
	ConfidenceLevel string `json:"confidence_level"`
	Reason          string `json:"reason"`
}

type wirePosition struct {
	PositionSize    decimal.Decimal `json:"position_size"`
	StopLossPrice   decimal.Decimal `json:"stop_loss_price"`
	TakeProfitPrice decimal.Decimal `json:"take_profit_price"`
}

type wireDecision struct {
	TradingDecision    wireTrading  `json:"trading_decision"`
	PositionManagement wirePosition `json:"position_management"`
}

// MarshalJSON renders the decision in the oracle wire shape.
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDecision{
		TradingDecision: wireTrading{
			Action:          string(d.Action),
			ConfidenceLevel: string(d.Confidence),
			Reason:          d.Reason,
		},
		PositionManagement: wirePosition{
			PositionSize:    d.PositionSize,
			StopLossPrice:   d.StopLoss,
			TakeProfitPrice: d.TakeProfit,
		},
	})
}
