package logger

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{name: "logs when KARASU_DEBUG is set", envValue: "1", expectLog: true},
		{name: "does not log when KARASU_DEBUG is empty", envValue: "", expectLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			t.Setenv(DebugEnv, tt.envValue)

			l := NewEnvLogger("[test]")
			l.Debug("poll %s", "skipped")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] poll skipped")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[devserver]")
	l.Info("listening on %s", "127.0.0.1:5000")
	l.Warn("kill refused")
	l.Error("sample failed")

	out := buf.String()
	assert.Contains(t, out, "[devserver] listening on 127.0.0.1:5000")
	assert.Contains(t, out, "[devserver] WARN: kill refused")
	assert.Contains(t, out, "[devserver] ERROR: sample failed")
}

func TestFileLogger_WritesToFile(t *testing.T) {
	t.Setenv(DebugEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "karasu.log")

	l, closeFn, err := NewFileLogger(path, "info")
	require.NoError(t, err)

	l.Debug("hidden %d", 1)
	l.Info("health transition %s", "connected")
	l.Error("kill failed")
	_ = closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "health transition connected")
	assert.Contains(t, string(data), "kill failed")
	assert.NotContains(t, string(data), "hidden 1")
}

func TestFileLogger_DebugEnvForcesDebug(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	path := filepath.Join(t.TempDir(), "karasu.log")

	l, closeFn, err := NewFileLogger(path, "error")
	require.NoError(t, err)
	l.Debug("metrics poll skipped")
	_ = closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "metrics poll skipped")
}

func TestFileLogger_InvalidLevel(t *testing.T) {
	t.Setenv(DebugEnv, "")
	_, _, err := NewFileLogger(filepath.Join(t.TempDir(), "x.log"), "loud")
	assert.Error(t, err)
}

func TestNoopLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Empty(t, buf.String(), "noop logger should not produce any output")
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	msgs := l.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, LogMessage{Level: "debug", Message: "debug msg"}, msgs[0])
	assert.Equal(t, LogMessage{Level: "error", Message: "error msg"}, msgs[3])

	assert.True(t, l.HasLevel("warn"))
	assert.True(t, l.Contains("info m"))
	assert.False(t, l.Contains("absent"))

	l.Clear()
	assert.Empty(t, l.Messages())
	assert.False(t, l.HasLevel("debug"))
}

func TestDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	buf := NewBufferLogger()
	SetDefault(buf)
	assert.Equal(t, buf, Default())

	assert.Equal(t, Logger(buf), OrDefault(nil))
	other := Noop()
	assert.Equal(t, other, OrDefault(other))
}
