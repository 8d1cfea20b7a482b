package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"ethpilot/internal/agent/ports"
	"ethpilot/internal/store"
	"ethpilot/internal/store/model"
)

const maxListLimit = 500

type SqliteStore struct {
	db *gorm.DB
}

var _ store.Store = (*SqliteStore)(nil)

// NewSqliteStore opens (or creates) the journal database at path using the
// pure-Go modernc driver.
func NewSqliteStore(path string) (*SqliteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newSqliteStore(db)
}

func NewSqliteStoreFromDB(db *gorm.DB) (*SqliteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db 不能为空")
	}
	return newSqliteStore(db)
}

func newSqliteStore(db *gorm.DB) (*SqliteStore, error) {
	models := []interface{}{
		&model.CycleModel{},
		&model.OrderEventModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) RecordCycle(ctx context.Context, r ports.CycleReport) error {
	row := model.CycleModel{
		TraceID:        r.TraceID,
		StartedAt:      r.StartedAt.UnixMilli(),
		FinishedAt:     r.FinishedAt.UnixMilli(),
		Outcome:        r.Outcome,
		Exposed:        r.Exposure.Exposed(),
		Exposure:       toJSON(r.Exposure),
		OrderID:        r.OrderID,
		EntryPrice:     r.EntryPrice.String(),
		BracketState:   string(r.Bracket),
		Attempts:       r.Attempts,
		LastProfit:     r.LastProfit.String(),
		NextIntervalMs: r.NextInterval.Milliseconds(),
		Error:          r.Error,
	}
	if r.Decision != nil {
		row.Action = string(r.Decision.Action)
		row.Decision = toJSON(r.Decision)
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *SqliteStore) RecordEvent(ctx context.Context, e ports.OrderEvent) error {
	row := model.OrderEventModel{
		TraceID:   e.TraceID,
		Kind:      e.Kind,
		InstID:    e.InstID,
		Details:   toJSON(e.Detail),
		Timestamp: e.At.UnixMilli(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// ListCycles returns the newest cycles first.
func (s *SqliteStore) ListCycles(ctx context.Context, limit int) ([]model.CycleModel, error) {
	var rows []model.CycleModel
	err := s.db.WithContext(ctx).
		Order("started_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	return rows, err
}

// ListEvents returns the newest events first; an empty traceID lists all.
func (s *SqliteStore) ListEvents(ctx context.Context, traceID string, limit int) ([]model.OrderEventModel, error) {
	q := s.db.WithContext(ctx).Model(&model.OrderEventModel{})
	if id := strings.TrimSpace(traceID); id != "" {
		q = q.Where("trace_id = ?", id)
	}
	var rows []model.OrderEventModel
	err := q.Order("timestamp DESC, id DESC").Limit(clampLimit(limit)).Find(&rows).Error
	return rows, err
}

func (s *SqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return 50
	}
	return limit
}

func toJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}
