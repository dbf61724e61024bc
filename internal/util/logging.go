package util

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LevelNone is above every level slog emits, so nothing is logged.
const LevelNone = slog.LevelError + 4

// ParseLogLevel maps a -log-level value to a slog level. Unknown names
// report false and fall back to errors only.
func ParseLogLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error", "":
		return slog.LevelError, true
	case "none", "off":
		return LevelNone, true
	}
	return slog.LevelError, false
}

// NewLogger returns the JSON logger described by LogLevel and LogFile.
// Records go to stderr when no file is set or the file cannot be opened.
func (c *Configuration) NewLogger() *slog.Logger {
	level, ok := ParseLogLevel(c.LogLevel)
	logger := slog.New(slog.NewJSONHandler(c.logWriter(), &slog.HandlerOptions{Level: level}))
	if !ok {
		logger.Warn("unknown log level, using error", slog.String("level", c.LogLevel))
	}
	return logger
}

func (c *Configuration) logWriter() io.Writer {
	if c.LogFile == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create log directory for %s: %v; logging to stderr\n", c.LogFile, err)
		return os.Stderr
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open log file %s: %v; logging to stderr\n", c.LogFile, err)
		return os.Stderr
	}
	return f
}
