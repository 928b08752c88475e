// Package logging собирает slog.Logger из конфигурации.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"erdgen/internal/config"
)

// ParseLevel: debug|info|warn|error, всё остальное = info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Writer returns stderr, or a rotated file when cfg.LogFile is set.
func Writer(cfg config.Config) io.Writer {
	if strings.TrimSpace(cfg.LogFile) == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// New builds a text logger for cfg.
func New(cfg config.Config) *slog.Logger {
	return NewWithWriter(Writer(cfg), cfg.LogLevel)
}

func NewWithWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}
