// Package logger wraps log/slog with printf-style helpers and per-cycle trace
// handles. Output and level can be swapped at runtime.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	levelVar slog.LevelVar
	mu       sync.RWMutex
	base     *slog.Logger
)

func init() {
	levelVar.Set(slog.LevelInfo)
	base = newLogger(os.Stdout)
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar}))
}

// SetOutput 替换日志输出（通常是 stdout + 日志文件）。
func SetOutput(w io.Writer) {
	l := newLogger(w)
	mu.Lock()
	base = l
	mu.Unlock()
}

// ParseLevel maps debug/info/warn/error; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func SetLevel(level string) {
	levelVar.Set(ParseLevel(level))
}

func Level() slog.Level {
	return levelVar.Level()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func logf(l *slog.Logger, level slog.Level, format string, v ...any) {
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...any) { logf(current(), slog.LevelDebug, format, v...) }
func Infof(format string, v ...any)  { logf(current(), slog.LevelInfo, format, v...) }
func Warnf(format string, v ...any)  { logf(current(), slog.LevelWarn, format, v...) }
func Errorf(format string, v ...any) { logf(current(), slog.LevelError, format, v...) }

// Trace 携带 trace_id 的日志句柄，一个周期内的所有日志共享同一个 trace。
type Trace struct {
	id string
}

// WithTrace returns a logger scoped to one cycle.
func WithTrace(traceID string) Trace {
	return Trace{id: strings.TrimSpace(traceID)}
}

func (t Trace) ID() string { return t.id }

func (t Trace) logger() *slog.Logger {
	l := current()
	if t.id != "" {
		l = l.With(slog.String("trace", t.id))
	}
	return l
}

func (t Trace) Debugf(format string, v ...any) { logf(t.logger(), slog.LevelDebug, format, v...) }
func (t Trace) Infof(format string, v ...any)  { logf(t.logger(), slog.LevelInfo, format, v...) }
func (t Trace) Warnf(format string, v ...any)  { logf(t.logger(), slog.LevelWarn, format, v...) }
func (t Trace) Errorf(format string, v ...any) { logf(t.logger(), slog.LevelError, format, v...) }
