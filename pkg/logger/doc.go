// Package logger builds slog loggers for the server and the CLI.
//
// Server processes log JSON to stdout; the CLI uses a colored console handler.
// Both are wrapped in LogHandlerDecorator so request- and batch-scoped values
// stored in the context are attached to every record:
//
//	log := logger.New(logger.Config{Level: "info", Format: "json"},
//		middlewares.RequestIDExtractor(),
//		logger.BatchIDExtractor(),
//	)
//	ctx := logger.WithBatchID(ctx, "20261017093015_7KQ2M9XA")
//	log.InfoContext(ctx, "batch completed", slog.Int("sent", 12))
//
// When Config.SentryDSN is set, warnings and errors are also sent to Sentry.
// A failed Sentry initialization degrades to local logging only.
package logger
