package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/bulkmail/internal/server"
)

// AccessLog returns middleware that writes one record per request with its
// method, path, status, response size and duration. 5xx responses are
// logged at error level, 4xx at warn, the rest at info.
func AccessLog() server.Middleware {
	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			start := time.Now()
			err := next(c)

			status := http.StatusOK
			var size int64
			if rw, ok := c.Response().(*server.ResponseWriter); ok {
				status = rw.Status()
				size = rw.Size()
			}
			if httpErr := server.AsHTTPError(err); httpErr != nil {
				status = httpErr.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			c.Logger().Log(c.Context(), level, "http request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", status),
				slog.Int64("size", size),
				slog.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}
