package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

// Config selects the handler used by New.
type Config struct {
	Output      io.Writer // Default: os.Stdout
	Level       string    // debug, info, warn, error (default: info)
	Format      string    // json, text, console (default: json)
	SentryDSN   string
	Environment string
}

// New builds a logger from cfg and decorates it with context extractors.
// When SentryDSN is set, warnings and errors are forwarded to Sentry as well.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	level := ParseLevel(cfg.Level)

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case FormatConsole:
		h = newConsoleHandler(out, level)
	case FormatText:
		h = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	default:
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}

	if cfg.SentryDSN != "" {
		h = withSentry(h, SentryConfig{
			DSN:         cfg.SentryDSN,
			Environment: cfg.Environment,
			MinLevel:    slog.LevelWarn,
		})
	}

	return slog.New(NewLogHandlerDecorator(h, extractors...))
}

// ParseLevel maps a level name to slog.Level. Unknown names yield info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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
