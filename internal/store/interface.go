package store

import (
	"context"

	"ethpilot/internal/agent/ports"
	"ethpilot/internal/store/model"
)

// Journal is the write side used by the trading loop.
type Journal = ports.Journal

// JournalReader serves the status API; the trading loop never reads back.
type JournalReader interface {
	ListCycles(ctx context.Context, limit int) ([]model.CycleModel, error)
	ListEvents(ctx context.Context, traceID string, limit int) ([]model.OrderEventModel, error)
}

// Store is the entry point for database access.
type Store interface {
	Journal
	JournalReader
	// Close closes the store connection.
	Close() error
}
