package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
)

// newConsoleHandler returns a human-friendly handler for the CLI.
// charmbracelet/log implements slog.Handler directly.
func newConsoleHandler(w io.Writer, level slog.Level) slog.Handler {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           log.Level(level),
	})
	return l
}
