package decision

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrDirection reports stop/target prices on the wrong side of the entry.
var ErrDirection = errors.New("stop/target on wrong side of entry")

// Limits bound the order size in base-asset units (ETH).
type Limits struct {
	MinOrder decimal.Decimal
	MaxOrder decimal.Decimal
}

type Validator struct {
	limits Limits
}

func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// SetLimits replaces the size bounds; callers swap them between cycles only.
func (v *Validator) SetLimits(limits Limits) {
	v.limits = limits
}

func (v *Validator) Limits() Limits { return v.limits }

// Clamp returns d with PositionSize forced to 0 or into [MinOrder, MaxOrder].
// Sizes are never rejected.
func (v *Validator) Clamp(d Decision) Decision {
	switch {
	case d.PositionSize.LessThan(v.limits.MinOrder):
		d.PositionSize = decimal.Zero
	case d.PositionSize.GreaterThan(v.limits.MaxOrder):
		d.PositionSize = v.limits.MaxOrder
	}
	return d
}

// Validate clamps the size and, for open actions with a known entry price
// (entry > 0), checks that take-profit and stop-loss straddle the entry in the
// position's favour. Hold decisions are always valid.
func (v *Validator) Validate(d Decision, entry decimal.Decimal) (Decision, error) {
	d = v.Clamp(d)
	if !d.Action.IsOpen() || !entry.IsPositive() {
		return d, nil
	}
	if err := CheckDirection(d.Action, entry, d.TakeProfit, d.StopLoss); err != nil {
		return d, err
	}
	return d, nil
}

// CheckDirection: long needs tp > entry > sl, short needs tp < entry < sl.
func CheckDirection(action Action, entry, tp, sl decimal.Decimal) error {
	switch action {
	case ActionOpenLong:
		if !tp.GreaterThan(entry) || !sl.LessThan(entry) {
			return fmt.Errorf("%w: long requires tp(%s) > entry(%s) > sl(%s)", ErrDirection, tp, entry, sl)
		}
	case ActionOpenShort:
		if !tp.LessThan(entry) || !sl.GreaterThan(entry) {
			return fmt.Errorf("%w: short requires tp(%s) < entry(%s) < sl(%s)", ErrDirection, tp, entry, sl)
		}
	}
	return nil
}
