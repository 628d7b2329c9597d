// Package logging builds the structured logger every service receives.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"meowbox-go/services/config"
)

// Logger wraps slog.Logger so services can derive component loggers with
// With and still pass *Logger around.
type Logger struct {
	*slog.Logger
}

// New creates a logger from cfg. When w is nil the destination follows
// cfg.Output (stdout or stderr); boards that log over a UART pass the port.
func New(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	if w == nil {
		switch strings.ToLower(cfg.Output) {
		case "stderr":
			w = os.Stderr
		default:
			w = os.Stdout
		}
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", "meowbox"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

// parseLevel maps debug/info/warn/error; anything else is info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying args on every record.
//
//	log := base.With("component", "display")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Discard drops everything. Used by tests that do not inspect output.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}
