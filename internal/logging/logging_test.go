package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"erdgen/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown", "entity", "Cart")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "entity=Cart")
}

func TestNew_Stderr(t *testing.T) {
	assert.NotNil(t, New(config.Default()))
}

func TestWriter(t *testing.T) {
	assert.Equal(t, os.Stderr, Writer(config.Default()))

	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "erdgen.log")
	w := Writer(cfg)
	lj, ok := w.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, cfg.LogFile, lj.Filename)

	NewWithWriter(lj, cfg.LogLevel).Info("hello")
	require.NoError(t, lj.Close())
	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=hello")
}
