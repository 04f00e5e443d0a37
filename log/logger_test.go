package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
	assert.Contains(t, LogLevel(99).String(), "UNKNOWN")
}

func TestDefaultLogger_Output(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelDebug)

	logger.Debug("debugging %s", "here")
	logger.Info("hello")
	logger.Warn("careful")
	logger.Error("broken: %d", 7)

	out := buf.String()
	assert.Contains(t, out, "[stategraph]")
	assert.Contains(t, out, "[DEBUG] debugging here")
	assert.Contains(t, out, "[INFO] hello")
	assert.Contains(t, out, "[WARN] careful")
	assert.Contains(t, out, "[ERROR] broken: 7")
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelWarn)

	logger.Debug("filtered")
	logger.Info("filtered")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "filtered")
	assert.Contains(t, out, "kept")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = &NoOpLogger{}

	// No output, no panic.
	logger.Debug("x")
	logger.Info("x")
	logger.Warn("x")
	logger.Error("x")
}

func TestPackageLevelLogger(t *testing.T) {
	original := GetDefaultLogger()
	defer SetDefaultLogger(original)

	var buf bytes.Buffer
	SetDefaultLogger(NewCustomLogger(&buf, LogLevelDebug))

	Debug("package debug")
	Info("package info")
	Warn("package warn")
	Error("package error")

	out := buf.String()
	assert.Contains(t, out, "package debug")
	assert.Contains(t, out, "package info")
	assert.Contains(t, out, "package warn")
	assert.Contains(t, out, "package error")
}
