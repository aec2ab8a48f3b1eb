package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/bulkmail/internal/server"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Timeout returns middleware that bounds a handler's run time. It is meant
// for short routes such as log downloads; /send must not use it because a
// batch outlives any reasonable request timeout.
//
// The handler keeps running after the deadline; it should watch c.Context().
func Timeout(timeout time.Duration) server.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()
			c.Set(timeoutContextKey{}, ctx)

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					c.LogWarn("request timeout", "timeout", timeout.String())
					return server.ErrServiceUnavailable("❌ Request timed out.",
						server.WithError(&TimeoutError{Duration: timeout}))
				}
				return ctx.Err()
			}
		}
	}
}

type timeoutContextKey struct{}

// GetTimeoutContext returns the context carrying the Timeout deadline, or
// the request context when Timeout is not installed.
func GetTimeoutContext(c server.Context) context.Context {
	if v, ok := c.Get(timeoutContextKey{}).(context.Context); ok {
		return v
	}
	return c.Context()
}
