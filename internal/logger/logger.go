// Package logger centralizes slog setup so every package gets the same
// level and format without repeating the wiring, matching
// WavesMan-ip-api/internal/logger/logger.go's pattern.
//
// Unlike the teacher's version, which re-reads LOG_LEVEL/LOG_FORMAT from
// the environment itself, Setup here takes its level/format already
// resolved by internal/config.Config — this CLI already has one place
// (config.Parse) that owns environment-variable resolution, and a second
// package quietly reading the same two variables behind it would make
// config.Config not actually authoritative over logging.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Setup builds the process-wide logger from the given level/format
// strings (config.Config's LogLevel/LogFormat, sourced from spec.md §6's
// LOG_LEVEL/LOG_FORMAT environment list), always writing to stderr.
func Setup(level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// L returns the process-wide logger, initializing it with defaults if
// Setup hasn't run yet (e.g. from a package-level init or a test that
// never calls config.Parse).
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup("", "")
	}
	return defaultLogger
}
