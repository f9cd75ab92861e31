package logger

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/kravl/errors"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: FormatJSON}, "kravl", buf)
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info")
	l.Info("started", Fields(FieldCount, 3))

	rec := lastRecord(t, &buf)
	assert.Equal(t, "started", rec["message"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "kravl", rec["service"])
	assert.EqualValues(t, 3, rec[FieldCount])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "warn")
	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "loud")
	l.Debug("hidden")
	assert.Empty(t, buf.String())
	l.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithComponentAndRun(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").WithComponent("fs-sink").WithRun("run-1")
	l.Error("write failed", ErrorFields("dest", errors.New(errors.CodeIO, "disk full")))

	rec := lastRecord(t, &buf)
	assert.Equal(t, "fs-sink", rec[FieldComponent])
	assert.Equal(t, "run-1", rec[FieldRunID])
	assert.Equal(t, "dest", rec[FieldStage])
	assert.Equal(t, "IO", rec[FieldCode])
	assert.Equal(t, "IO: disk full", rec[FieldError])
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").
		WithFields(Fields(FieldPath, "a/b.txt", FieldMime, "text/plain")).
		WithError(stderrors.New("boom"))
	l.Warn("skipped")

	rec := lastRecord(t, &buf)
	assert.Equal(t, "a/b.txt", rec[FieldPath])
	assert.Equal(t, "text/plain", rec[FieldMime])
	assert.Equal(t, "boom", rec["error"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: FormatConsole, NoColor: true}, "kravl", &buf)
	l.Info("hello", Fields(FieldTask, "news"))

	out := buf.String()
	assert.Contains(t, out, "[KRA][INF]")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "task:news")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored")
	l.WithComponent("x").Error("ignored")
}

func TestFields_OddArgs(t *testing.T) {
	m := Fields("a", 1, "b")
	assert.Equal(t, map[string]interface{}{"a": 1}, m)
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("resize", 1500*time.Millisecond)
	assert.Equal(t, "resize", m[FieldStage])
	assert.Equal(t, int64(1500), m[FieldDuration])
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, FormatConsole, cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	require.NoError(t, cfg.Validate())

	cfg.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg.Level = "debug"
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := globalLogger
	t.Cleanup(func() { SetGlobalLogger(prev) })

	SetGlobalLogger(jsonLogger(&buf, "debug"))
	Info("global")
	WithComponent("unit").Debug("scoped")

	rec := lastRecord(t, &buf)
	assert.Equal(t, "scoped", rec["message"])
	assert.Equal(t, "unit", rec[FieldComponent])
}
