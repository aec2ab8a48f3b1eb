package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/internal/server"
	"github.com/dmitrymomot/bulkmail/middlewares"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	echo := func(c server.Context) error {
		return c.String(http.StatusOK, middlewares.GetRequestID(c))
	}

	t.Run("generates ID", func(t *testing.T) {
		t.Parallel()
		h := serve(t, echo, nil, middlewares.RequestID())

		rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get("X-Request-ID")
		require.Len(t, id, 26)
		require.Equal(t, id, rec.Body.String())
	})

	t.Run("keeps client ID", func(t *testing.T) {
		t.Parallel()
		h := serve(t, echo, nil, middlewares.RequestID())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "corr-42")
		rec := do(h, req)
		require.Equal(t, "corr-42", rec.Header().Get("X-Request-ID"))
		require.Equal(t, "corr-42", rec.Body.String())
	})

	t.Run("header priority", func(t *testing.T) {
		t.Parallel()
		h := serve(t, echo, nil, middlewares.RequestID())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "first")
		req.Header.Set("X-Correlation-ID", "second")
		require.Equal(t, "first", do(h, req).Body.String())
	})

	t.Run("replaces unsafe client IDs", func(t *testing.T) {
		t.Parallel()
		h := serve(t, echo, nil, middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "generated" })))

		for _, bad := range []string{"has space", strings.Repeat("a", 129), "line\tbreak"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", bad)
			require.Equal(t, "generated", do(h, req).Body.String(), bad)
		}
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()
		h := serve(t, echo, nil, middlewares.RequestID(middlewares.WithRequestIDHeaders("X-Trace")))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace", "trace-1")
		req.Header.Set("X-Request-ID", "ignored")
		require.Equal(t, "trace-1", do(h, req).Body.String())
	})

	t.Run("extractor adds request_id to logs", func(t *testing.T) {
		t.Parallel()

		var logs syncBuffer
		h := serve(t, func(c server.Context) error {
			c.LogInfo("handling")
			return c.NoContent(http.StatusNoContent)
		}, []server.Option{server.WithLogger(jsonLogger(&logs, middlewares.RequestIDExtractor()))},
			middlewares.RequestID())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-7")
		do(h, req)
		require.Contains(t, logs.String(), `"request_id":"req-7"`)
	})
}
