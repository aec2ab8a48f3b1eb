package logger

import (
	"context"
	"log/slog"
)

type batchIDKey struct{}

// WithBatchID stores the batch ID in ctx so every log line of the batch carries it.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey{}, id)
}

// BatchID returns the batch ID stored in ctx, if any.
func BatchID(ctx context.Context) string {
	v, _ := ctx.Value(batchIDKey{}).(string)
	return v
}

// BatchIDExtractor adds "batch_id" to log records emitted within a batch.
func BatchIDExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := BatchID(ctx); v != "" {
			return slog.String("batch_id", v), true
		}
		return slog.Attr{}, false
	}
}
