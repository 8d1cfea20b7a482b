package notifier

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeEvent carries what the alert texts need about one execution.
type TradeEvent struct {
	InstID     string
	Side       string
	SizeBase   decimal.Decimal
	Contracts  string
	EntryPrice decimal.Decimal
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
	Attempts   int
	Reason     string
	TraceID    string
	At         time.Time
}

func (e TradeEvent) positionLines() []string {
	return []string{
		fmt.Sprintf("%s %s %s ETH (%s张)", e.InstID, e.Side, e.SizeBase.String(), e.Contracts),
		"开仓价: " + e.EntryPrice.StringFixed(2),
	}
}

func OrderOpenedMessage(e TradeEvent) StructuredMessage {
	return StructuredMessage{
		Icon:      "📈",
		Title:     "开仓成功",
		Sections:  []MessageSection{{Title: "仓位", Lines: e.positionLines()}, {Title: "理由", Lines: []string{e.Reason}}},
		Footer:    "trace " + e.TraceID,
		Timestamp: e.At,
	}
}

func BracketProtectedMessage(e TradeEvent) StructuredMessage {
	return StructuredMessage{
		Icon:  "✅",
		Title: "止盈止损设置成功",
		Sections: []MessageSection{
			{Title: "仓位", Lines: e.positionLines()},
			{Title: "保护", Lines: []string{"止盈: " + e.TakeProfit.String(), "止损: " + e.StopLoss.String(), fmt.Sprintf("尝试次数: %d", e.Attempts)}},
		},
		Footer:    "trace " + e.TraceID,
		Timestamp: e.At,
	}
}

// BracketFailedMessage: the position is left open without protection.
func BracketFailedMessage(e TradeEvent) StructuredMessage {
	return StructuredMessage{
		Icon:  "⚠️",
		Title: "止盈止损设置失败",
		Sections: []MessageSection{
			{Title: "仓位", Lines: e.positionLines()},
			{Title: "原因", Lines: []string{e.Reason, fmt.Sprintf("尝试次数: %d", e.Attempts)}},
		},
		Footer:    "持仓未受保护，请人工处理 · trace " + e.TraceID,
		Timestamp: e.At,
	}
}
