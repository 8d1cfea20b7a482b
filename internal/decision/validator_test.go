package decision

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testValidator() *Validator {
	return NewValidator(Limits{MinOrder: dec("0.001"), MaxOrder: dec("0.010")})
}

func TestValidator_ClampKeepsSizeInRange(t *testing.T) {
	v := testValidator()
	sizes := []string{"-3", "0", "0.0001", "0.00099", "0.001", "0.004", "0.01", "0.0100001", "0.5", "1000"}
	for _, s := range sizes {
		got := v.Clamp(Decision{Action: ActionOpenLong, PositionSize: dec(s)}).PositionSize
		inRange := got.GreaterThanOrEqual(dec("0.001")) && got.LessThanOrEqual(dec("0.010"))
		assert.True(t, got.IsZero() || inRange, "size %s clamped to %s", s, got)
	}
	assert.True(t, v.Clamp(Decision{PositionSize: dec("0.0005")}).PositionSize.IsZero())
	assert.True(t, v.Clamp(Decision{PositionSize: dec("0.004")}).PositionSize.Equal(dec("0.004")))
	assert.True(t, v.Clamp(Decision{PositionSize: dec("2")}).PositionSize.Equal(dec("0.01")))
}

func TestValidator_LongTargetBelowEntryIsInvalid(t *testing.T) {
	d := Decision{
		Action:       ActionOpenLong,
		Confidence:   ConfidenceHigh,
		PositionSize: dec("0.01"),
		TakeProfit:   dec("3400"),
		StopLoss:     dec("3600"),
	}
	_, err := testValidator().Validate(d, dec("3500"))
	assert.ErrorIs(t, err, ErrDirection)
}

func TestValidator_Direction(t *testing.T) {
	entry := dec("3500")
	cases := []struct {
		name   string
		action Action
		tp, sl string
		ok     bool
	}{
		{"long ok", ActionOpenLong, "3600", "3400", true},
		{"long tp equal entry", ActionOpenLong, "3500", "3400", false},
		{"long sl above entry", ActionOpenLong, "3600", "3550", false},
		{"short ok", ActionOpenShort, "3400", "3600", true},
		{"short inverted", ActionOpenShort, "3600", "3400", false},
		{"short sl equal entry", ActionOpenShort, "3400", "3500", false},
		{"hold ignores prices", ActionHold, "1", "99999", true},
	}
	v := testValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decision{Action: tc.action, Confidence: ConfidenceLow, PositionSize: dec("0.002"), TakeProfit: dec(tc.tp), StopLoss: dec(tc.sl)}
			_, err := v.Validate(d, entry)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrDirection)
			}
		})
	}
}

func TestValidator_UnknownEntrySkipsDirection(t *testing.T) {
	d := Decision{Action: ActionOpenLong, PositionSize: dec("0.5"), TakeProfit: dec("1"), StopLoss: dec("2")}
	out, err := testValidator().Validate(d, decimal.Zero)
	assert.NoError(t, err)
	assert.True(t, out.PositionSize.Equal(dec("0.01")))
}

func TestValidator_SetLimits(t *testing.T) {
	v := testValidator()
	v.SetLimits(Limits{MinOrder: dec("0.01"), MaxOrder: dec("0.02")})
	assert.True(t, v.Limits().MaxOrder.Equal(dec("0.02")))
	assert.True(t, v.Clamp(Decision{PositionSize: dec("0.005")}).PositionSize.IsZero())
	assert.True(t, v.Clamp(Decision{PositionSize: dec("1")}).PositionSize.Equal(dec("0.02")))
}
