package executor

import (
	"strings"

	"ethpilot/internal/gateway/exchange"
)

// FailureKind is a diagnostic label for a failed submission.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureInsufficient FailureKind = "insufficient_balance"
	FailureSideMismatch FailureKind = "side_mismatch"
	FailureLotSize      FailureKind = "below_min_lot"
	FailureTransport    FailureKind = "transport"
	FailureRejected     FailureKind = "rejected"
	FailureUnknown      FailureKind = "unknown"
)

// code 51000 is OKX's "Parameter {posSide} error".
const codeParamError = "51000"

var failureHints = map[FailureKind]string{
	FailureInsufficient: "可能原因：账户余额不足",
	FailureSideMismatch: "可能原因：持仓模式与 posSide 参数不匹配",
	FailureLotSize:      "下单量换算后小于最小张数",
	FailureTransport:    "网络或鉴权错误",
}

// Classify inspects the error text; it never changes control flow.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if IsLotError(err) {
		return FailureLotSize
	}
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "insufficient"):
		return FailureInsufficient
	case strings.Contains(text, "posside"):
		return FailureSideMismatch
	}
	if rej, ok := exchange.AsRejection(err); ok {
		if rej.Code == codeParamError {
			return FailureSideMismatch
		}
		return FailureRejected
	}
	if exchange.IsTransport(err) {
		return FailureTransport
	}
	return FailureUnknown
}

func (k FailureKind) Hint() string {
	return failureHints[k]
}
