package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/abgdnv/catalogtable/pkg/logger"
	"github.com/abgdnv/catalogtable/pkg/web"
)

// NewLogger creates a new slog.Logger instance with the specified log level
// writing JSON to out. Records carry trace and request ids from the context.
func NewLogger(level string, out io.Writer) *slog.Logger {
	logLevel := toLevel(level)
	loggerOpts := &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}
	logHandler := slog.NewJSONHandler(out, loggerOpts)
	return slog.New(logger.NewContextHandler(logHandler, logger.WithRequestIDFunc(web.RequestID)))
}

// OpenLogOutput returns the writer a logger should use: stdout for an empty
// path, io.Discard for "-", or the file at path opened for appending.
// The returned close function is never nil.
func OpenLogOutput(path string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch path {
	case "":
		return os.Stdout, noop, nil
	case "-":
		return io.Discard, noop, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, f.Close, nil
}

// toLevel converts a string representation of a log level to slog.Level.
func toLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
