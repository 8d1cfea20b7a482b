package executor

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrBelowMinLot: the converted contract count is under the exchange minimum.
var ErrBelowMinLot = errors.New("below minimum lot size")

// LotConverter 将 ETH 数量换算为合约张数（ctVal=0.1 时 1 张 = 0.1 ETH）。
type LotConverter struct {
	ContractValue decimal.Decimal
	MinLot        decimal.Decimal
}

// precision is the number of decimals implied by MinLot (0.01 -> 2).
func (l LotConverter) precision() int32 {
	if exp := l.MinLot.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// ToContracts converts a base-asset size into a contract count rendered at
// lot precision. Nothing is submitted when the count is below MinLot.
func (l LotConverter) ToContracts(size decimal.Decimal) (string, error) {
	if !l.ContractValue.IsPositive() {
		return "", fmt.Errorf("contract value must be positive, got %s", l.ContractValue)
	}
	contracts := size.Div(l.ContractValue)
	if contracts.LessThan(l.MinLot) {
		return "", fmt.Errorf("%w: %s contracts < %s", ErrBelowMinLot, contracts.StringFixed(4), l.MinLot)
	}
	return contracts.StringFixed(l.precision()), nil
}

// ToBase converts contracts back to base-asset units.
func (l LotConverter) ToBase(contracts decimal.Decimal) decimal.Decimal {
	return contracts.Mul(l.ContractValue)
}
