package model

import (
	"gorm.io/datatypes"
)

// CycleModel maps to 'cycle_journal'; one row per trading cycle.
type CycleModel struct {
	ID             int64          `gorm:"column:id;primaryKey"`
	TraceID        string         `gorm:"column:trace_id;index"`
	StartedAt      int64          `gorm:"column:started_at;index"`
	FinishedAt     int64          `gorm:"column:finished_at"`
	Outcome        string         `gorm:"column:outcome;index"`
	Exposed        bool           `gorm:"column:exposed"`
	Exposure       datatypes.JSON `gorm:"column:exposure"`
	Action         string         `gorm:"column:action"`
	Decision       datatypes.JSON `gorm:"column:decision"`
	OrderID        string         `gorm:"column:order_id"`
	EntryPrice     string         `gorm:"column:entry_price"`
	BracketState   string         `gorm:"column:bracket_state"`
	Attempts       int            `gorm:"column:bracket_attempts"`
	LastProfit     string         `gorm:"column:last_realized_profit"`
	NextIntervalMs int64          `gorm:"column:next_interval_ms"`
	Error          string         `gorm:"column:error"`
}

func (CycleModel) TableName() string { return "cycle_journal" }

// OrderEventModel maps to 'order_events'.
type OrderEventModel struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	TraceID   string         `gorm:"column:trace_id;index"`
	Kind      string         `gorm:"column:kind;index"`
	InstID    string         `gorm:"column:inst_id"`
	Details   datatypes.JSON `gorm:"column:details"`
	Timestamp int64          `gorm:"column:timestamp"`
}

func (OrderEventModel) TableName() string { return "order_events" }
