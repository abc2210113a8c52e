package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARNING, ParseLevel(" warn "))
	assert.Equal(t, WARNING, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, CRITICAL, ParseLevel("critical"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", "warn")

	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARNING] [svc]")
	assert.Contains(t, out, "logger_test.go")

	l.SetLevel(DEBUG)
	l.Debugf("n=%d", 3)
	assert.Contains(t, buf.String(), "[DEBUG] [svc]")
	assert.Contains(t, buf.String(), "n=3")
}

func TestEntry_FieldsAndTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", "debug")
	ctx := WithTraceID(context.Background(), "abc")

	l.WithFields(ctx, Fields{"user_id": 7, "action": "login"}).Errorf("failed: %s", "x")
	out := buf.String()
	assert.Contains(t, out, "[ERROR] [svc] [trace_id=abc action=login user_id=7]")
	assert.Contains(t, out, "failed: x")
	assert.Contains(t, out, "logger_test.go")
}

func TestTraceID_Missing(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestNewWithFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := NewWithFile(dir, "roleguard", "info")
	require.NoError(t, err)
	l.Info("to file")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(filepath.Join(dir, "roleguard.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")
}
