package logger

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := Level()
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		levelVar.Set(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("warn")
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
}

func TestTraceAddsID(t *testing.T) {
	buf := captureOutput(t)
	SetLevel("debug")
	tr := WithTrace(" abc123 ")
	assert.Equal(t, "abc123", tr.ID())
	tr.Debugf("cycle %s", "start")
	WithTrace("").Infof("no trace")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "trace=abc123")
	assert.Contains(t, lines[0], `msg="cycle start"`)
	assert.NotContains(t, lines[1], "trace=")
}

func TestLLMWriter(t *testing.T) {
	var buf bytes.Buffer
	SetLLMWriter(&buf)
	EnableLLMPayloadDump(false)
	t.Cleanup(func() { SetLLMWriter(nil) })

	LogLLMRequest("deepseek", "t1", "sys", "user", `{"model":"x"}`)
	LogLLMResponse("deepseek", "t1", "raw text")
	out := buf.String()
	assert.Contains(t, out, "[LLM][request][deepseek][t1]")
	assert.Contains(t, out, "--- SYSTEM ---\nsys\n")
	assert.NotContains(t, out, "PAYLOAD")
	assert.Contains(t, out, "--- RAW ---\nraw text\n")

	buf.Reset()
	EnableLLMPayloadDump(true)
	LogLLMRequest("deepseek", "t2", "sys", "user", `{"model":"x"}`)
	assert.Contains(t, buf.String(), "--- PAYLOAD ---")

	SetLLMWriter(nil)
	buf.Reset()
	LogLLMDecision("t3", "direct", "hold")
	assert.Empty(t, buf.String())
}
