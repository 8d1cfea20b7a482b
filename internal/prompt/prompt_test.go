package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethpilot/internal/decision"
	"ethpilot/internal/gateway/exchange"
)

var testLimits = Limits{InstID: "ETH-USDT-SWAP", Leverage: 100, MinOrder: "0.001", MaxOrder: "0.010"}

func testSnapshot() decision.Snapshot {
	return decision.Snapshot{
		Market: decision.MarketSnapshot{
			CurrentPrice: decimal.RequireFromString("3500.5"),
			Klines:       []decision.KlineRow{{Timestamp: "2024-05-01 00:00:00", Open: 3500, High: 3510, Low: 3490, Close: 3505, Volume: 12}},
		},
		Account: decision.AccountSnapshot{
			Available:   decimal.RequireFromString("4.51"),
			TotalEquity: decimal.RequireFromString("4.52"),
			LastProfit:  decimal.RequireFromString("-0.12"),
		},
		Position: exchange.FlatPosition("ETH-USDT-SWAP", 100),
	}
}

func TestBuild_DefaultTemplates(t *testing.T) {
	b, err := Load("", testLimits)
	require.NoError(t, err)

	sys, user, err := b.Build(testSnapshot())
	require.NoError(t, err)
	assert.Contains(t, sys, "4.510000 USDT")
	assert.Contains(t, sys, "-0.120000 USDT")
	assert.Contains(t, sys, "100 倍")
	assert.Contains(t, sys, `"trading_decision"`)
	assert.Contains(t, user, `"market_data"`)
	assert.Contains(t, user, `"kline_5min"`)
	assert.Contains(t, user, `"current_price": "3500.5"`)
	assert.Contains(t, user, `"position_side": "flat"`)
	assert.NotContains(t, user, `"indicators"`)
}

func TestLoad_YAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system: |\n  balance={{.Available}} max={{.MaxOrder}}\n"), 0o600))

	b, err := Load(path, testLimits)
	require.NoError(t, err)
	sys, user, err := b.Build(testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "balance=4.510000 max=0.010", sys)
	assert.Contains(t, user, "account_status")
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sytem: typo\n"), 0o600))
	_, err := Load(path, testLimits)
	assert.Error(t, err)
}

func TestNew_BadTemplate(t *testing.T) {
	_, err := New(File{System: "{{.Nope", User: defaultUser}, testLimits)
	assert.Error(t, err)

	b, err := New(File{System: "{{.Missing}}", User: defaultUser}, testLimits)
	require.NoError(t, err)
	_, _, err = b.Build(testSnapshot())
	assert.Error(t, err)
}

func TestLoad_ShippedExample(t *testing.T) {
	b, err := Load("../../configs/prompt.example.yaml", testLimits)
	require.NoError(t, err)
	system, user, err := b.Build(testSnapshot())
	require.NoError(t, err)
	assert.Contains(t, system, "ETH-USDT-SWAP")
	assert.Contains(t, system, `"trading_decision"`)
	assert.Contains(t, user, `"market_data"`)
}
