package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/internal/server"
	"github.com/dmitrymomot/bulkmail/middlewares"
)

func TestAccessLog(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var logs syncBuffer
		h := serve(t, okHandler, []server.Option{server.WithLogger(jsonLogger(&logs))}, middlewares.AccessLog())

		do(h, httptest.NewRequest(http.MethodPost, "/", nil))
		out := logs.String()
		require.Contains(t, out, `"msg":"http request"`)
		require.Contains(t, out, `"level":"INFO"`)
		require.Contains(t, out, `"method":"POST"`)
		require.Contains(t, out, `"status":200`)
		require.Contains(t, out, `"size":2`)
	})

	t.Run("client error logs warn", func(t *testing.T) {
		t.Parallel()

		var logs syncBuffer
		h := serve(t, func(c server.Context) error { return server.ErrBadRequest("❌ bad") },
			[]server.Option{server.WithLogger(jsonLogger(&logs))}, middlewares.AccessLog())

		do(h, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Contains(t, logs.String(), `"level":"WARN"`)
		require.Contains(t, logs.String(), `"status":400`)
	})
}
