package decision

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParser_ProseWrappedDecision(t *testing.T) {
	raw := `Sure, here: {"trading_decision":{"action":"open_long","confidence_level":"high","reason":"breakout"},"position_management":{"position_size":0.5,"stop_loss_price":3400,"take_profit_price":3600}}`
	d := NewParser().Parse(raw)

	assert.Equal(t, ActionOpenLong, d.Action)
	assert.Equal(t, ConfidenceHigh, d.Confidence)
	assert.Equal(t, "breakout", d.Reason)
	assert.Equal(t, SourceShape, d.Source)
	assert.True(t, d.PositionSize.Equal(dec("0.5")))
	assert.True(t, d.StopLoss.Equal(dec("3400")))
	assert.True(t, d.TakeProfit.Equal(dec("3600")))

	v := NewValidator(Limits{MinOrder: dec("0.001"), MaxOrder: dec("0.010")})
	clamped := v.Clamp(d)
	assert.True(t, clamped.PositionSize.Equal(dec("0.01")), clamped.PositionSize.String())
}

func TestParser_Tiers(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		action Action
		source Source
		size   string
	}{
		{
			name:   "plain object",
			raw:    `{"trading_decision":{"action":"hold","confidence_level":"low","reason":"chop"},"position_management":{"position_size":0,"stop_loss_price":0,"take_profit_price":0}}`,
			action: ActionHold,
			source: SourceDirect,
			size:   "0",
		},
		{
			name:   "fenced object",
			raw:    "```json\n{\"trading_decision\":{\"action\":\"open_short\",\"confidence_level\":\"medium\",\"reason\":\"rejection\"},\n\"position_management\":{\"position_size\":\"0.005\",\"stop_loss_price\":\"3550.5\",\"take_profit_price\":3400}}\n```",
			action: ActionOpenShort,
			source: SourceDirect,
			size:   "0.005",
		},
		{
			name:   "reversed keys inside prose",
			raw:    "analysis...\n{ \"position_management\": {\"position_size\": 0.002, \"stop_loss_price\": 3300, \"take_profit_price\": 3700},\n  \"trading_decision\": {\"action\": \"open_long\", \"confidence_level\": \"high\", \"reason\": \"trend\"} }\nend",
			action: ActionOpenLong,
			source: SourceShape,
			size:   "0.002",
		},
		{
			name:   "nested extras need outer span",
			raw:    "Result:\n{\"trading_decision\": {\"action\": \"open_short\", \"confidence_level\": \"low\", \"reason\": \"x\", \"meta\": {\"k\": 1}}, \"position_management\": {\"position_size\": 0.003, \"stop_loss_price\": 3600, \"take_profit_price\": 3400}}\nthanks",
			action: ActionOpenShort,
			source: SourceSpan,
			size:   "0.003",
		},
		{
			name:   "loose key value text",
			raw:    "action: OPEN_SHORT\nreason: momentum fading",
			action: ActionOpenShort,
			source: SourceHeuristic,
			size:   "0",
		},
		{
			name:   "native language labels",
			raw:    "操作: open_long\n理由: 放量突破",
			action: ActionOpenLong,
			source: SourceHeuristic,
			size:   "0",
		},
	}
	p := NewParser()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := p.Parse(tc.raw)
			assert.Equal(t, tc.action, d.Action)
			assert.Equal(t, tc.source, d.Source)
			assert.True(t, d.PositionSize.Equal(dec(tc.size)), d.PositionSize.String())
		})
	}
}

func TestParser_HeuristicDefaults(t *testing.T) {
	d := NewParser().Parse("action: open_long, nothing else")
	assert.Equal(t, ActionOpenLong, d.Action)
	assert.Equal(t, ConfidenceMedium, d.Confidence)
	assert.Equal(t, DefaultReason, d.Reason)
	assert.True(t, d.StopLoss.IsZero())

	// Out-of-set action is ignored but the reason still counts.
	d = NewParser().Parse(`{"trading_decision":{"action":"buy","confidence_level":"high","reason":"dip"}}`)
	assert.Equal(t, ActionHold, d.Action)
	assert.Equal(t, "dip", d.Reason)
	assert.Equal(t, SourceHeuristic, d.Source)
}

func TestParser_MalformedFallsBackToHold(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"no json here at all",
		"{",
		"}{",
		"```\n```",
		`{"trading_decision":{"confidence_level":"extreme"}}`,
		"\x00\xff\xfe",
		`{"position_management":{"position_size":-1}}`,
	}
	p := NewParser()
	for _, in := range inputs {
		d := p.Parse(in)
		require.True(t, d.Action.Valid(), "input %q", in)
		require.True(t, d.Confidence.Valid(), "input %q", in)
		assert.Equal(t, ActionHold, d.Action, "input %q", in)
		assert.True(t, d.PositionSize.IsZero(), "input %q", in)
	}
	d := p.Parse("no json here at all")
	assert.Equal(t, SafeDefault(), d)
	assert.Equal(t, ConfidenceLow, d.Confidence)
	assert.Equal(t, ParseFailureReason, d.Reason)
}

func TestParser_RejectsNegativeSizeFromStructuredTiers(t *testing.T) {
	raw := `{"trading_decision":{"action":"open_long","confidence_level":"high","reason":"r"},"position_management":{"position_size":-0.5,"stop_loss_price":1,"take_profit_price":2}}`
	d := NewParser().Parse(raw)
	assert.Equal(t, SourceHeuristic, d.Source)
	assert.True(t, d.PositionSize.IsZero())
}

func TestParser_StrategyPanicIsContained(t *testing.T) {
	p := NewParserWith(
		Strategy{Source: SourceDirect, Extract: func(string) (Decision, bool) { panic("boom") }},
		Strategy{Source: SourceHeuristic, Extract: parseHeuristic},
	)
	d := p.Parse("action: hold reason: flat market")
	assert.Equal(t, ActionHold, d.Action)
	assert.Equal(t, SourceHeuristic, d.Source)
}

func TestValidate_Schema(t *testing.T) {
	ok := `{"trading_decision":{"action":"hold","confidence_level":"low","reason":""},"position_management":{"position_size":"0","stop_loss_price":0,"take_profit_price":0}}`
	assert.NoError(t, Validate(ok))

	missing := `{"trading_decision":{"action":"hold","confidence_level":"low"},"position_management":{"position_size":0,"stop_loss_price":0,"take_profit_price":0}}`
	assert.ErrorIs(t, Validate(missing), ErrSchema)

	badEnum := `{"trading_decision":{"action":"close_long","confidence_level":"low","reason":""},"position_management":{"position_size":0,"stop_loss_price":0,"take_profit_price":0}}`
	assert.ErrorIs(t, Validate(badEnum), ErrSchema)

	badAmount := `{"trading_decision":{"action":"hold","confidence_level":"low","reason":""},"position_management":{"position_size":"lots","stop_loss_price":0,"take_profit_price":0}}`
	assert.ErrorIs(t, Validate(badAmount), ErrSchema)

	assert.ErrorIs(t, Validate(`[1,2]`), ErrSchema)
}

func TestDecision_MarshalJSONRoundTripsThroughParser(t *testing.T) {
	in := Decision{
		Action:       ActionOpenShort,
		Confidence:   ConfidenceMedium,
		Reason:       "lower high",
		PositionSize: dec("0.004"),
		StopLoss:     dec("3610"),
		TakeProfit:   dec("3420.5"),
	}
	raw, err := in.MarshalJSON()
	require.NoError(t, err)
	out := NewParser().Parse(string(raw))
	assert.Equal(t, SourceDirect, out.Source)
	assert.Equal(t, in.Action, out.Action)
	assert.True(t, out.TakeProfit.Equal(in.TakeProfit))
}

func FuzzParser_AlwaysValid(f *testing.F) {
	seeds := []string{
		"",
		"{",
		"```json\n{}\n```",
		"action: open_short reason: fade",
		`{"trading_decision":{"action":"open_long","confidence_level":"high","reason":"r"},"position_management":{"position_size":-0.5,"stop_loss_price":1,"take_profit_price":2}}`,
		`{"position_management":{"position_size":"1e400"}}`,
		"操作: open_long\n理由: 放量突破",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	p := NewParser()
	f.Fuzz(func(t *testing.T, raw string) {
		d := p.Parse(raw)
		require.True(t, d.Action.Valid(), "action %q", d.Action)
		require.True(t, d.Confidence.Valid(), "confidence %q", d.Confidence)
		require.False(t, d.PositionSize.IsNegative(), "size %s", d.PositionSize)
	})
}
