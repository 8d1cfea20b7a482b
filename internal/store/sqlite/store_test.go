package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethpilot/internal/agent/interfaces"
	"ethpilot/internal/agent/ports"
	"ethpilot/internal/decision"
	"ethpilot/internal/executor"
)

func openTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	s, err := NewSqliteStore(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteStore_CycleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	exposed := ports.CycleReport{
		TraceID:      "t1",
		StartedAt:    base,
		FinishedAt:   base.Add(time.Second),
		Exposure:     interfaces.ExposureState{HasPosition: true},
		Outcome:      "exposed",
		NextInterval: 30 * time.Second,
	}
	d := decision.Decision{Action: decision.ActionOpenLong, Confidence: decision.ConfidenceHigh, PositionSize: decimal.RequireFromString("0.01")}
	opened := ports.CycleReport{
		TraceID:      "t2",
		StartedAt:    base.Add(time.Minute),
		FinishedAt:   base.Add(time.Minute + 20*time.Second),
		Decision:     &d,
		Outcome:      "protected",
		OrderID:      "ord-1",
		EntryPrice:   decimal.RequireFromString("3501.2"),
		Bracket:      executor.BracketProtected,
		Attempts:     2,
		LastProfit:   decimal.RequireFromString("-0.5"),
		NextInterval: 300 * time.Second,
	}
	require.NoError(t, s.RecordCycle(ctx, exposed))
	require.NoError(t, s.RecordCycle(ctx, opened))

	rows, err := s.ListCycles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "t2", rows[0].TraceID)
	assert.Equal(t, "open_long", rows[0].Action)
	assert.Equal(t, "3501.2", rows[0].EntryPrice)
	assert.Equal(t, "protected", rows[0].BracketState)
	assert.Equal(t, int64(300000), rows[0].NextIntervalMs)
	assert.True(t, rows[1].Exposed)
	assert.Empty(t, rows[1].Action)

	var exp interfaces.ExposureState
	require.NoError(t, json.Unmarshal(rows[1].Exposure, &exp))
	assert.True(t, exp.HasPosition)
}

func TestSqliteStore_Events(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.RecordEvent(ctx, ports.OrderEvent{TraceID: "a", Kind: "order_opened", InstID: "ETH-USDT-SWAP", Detail: map[string]any{"ord_id": "1"}, At: now}))
	require.NoError(t, s.RecordEvent(ctx, ports.OrderEvent{TraceID: "a", Kind: "bracket_failed", At: now.Add(time.Second)}))
	require.NoError(t, s.RecordEvent(ctx, ports.OrderEvent{TraceID: "b", Kind: "order_failed", At: now.Add(2 * time.Second)}))

	rows, err := s.ListEvents(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "bracket_failed", rows[0].Kind)
	assert.JSONEq(t, `{"ord_id":"1"}`, string(rows[1].Details))

	all, err := s.ListEvents(ctx, "", 1000)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
