package server_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/internal/server"
)

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("wrapped", func(t *testing.T) {
		t.Parallel()
		httpErr := server.ErrBadRequest("bad")
		err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", httpErr))
		require.Same(t, httpErr, server.AsHTTPError(err))
	})

	t.Run("unrelated", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, server.AsHTTPError(errors.New("boom")))
		require.Nil(t, server.AsHTTPError(nil))
	})
}

func TestHTTPError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	err := server.ErrBadGateway("upstream", server.WithError(cause), server.WithRequestID("req-1"))
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusBadGateway, err.StatusCode())
	require.Equal(t, "Bad Gateway", err.StatusText())
	require.Equal(t, "req-1", err.RequestID)
	require.Equal(t, "upstream", err.Error())
}

func TestDefaultErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{
			name:       "http error",
			err:        server.ErrBadRequest("❌ Excel file and message are required."),
			wantCode:   http.StatusBadRequest,
			wantStatus: "❌ Excel file and message are required.",
		},
		{
			name:       "wrapped http error",
			err:        fmt.Errorf("send: %w", server.ErrRequestTooLarge("❌ Upload too large.")),
			wantCode:   http.StatusRequestEntityTooLarge,
			wantStatus: "❌ Upload too large.",
		},
		{
			name:       "plain error",
			err:        errors.New("disk full"),
			wantCode:   http.StatusInternalServerError,
			wantStatus: "❌ Internal Server Error: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := server.New(server.WithHandlers(handlerFunc(func(r server.Router) {
				r.GET("/", func(c server.Context) error { return tt.err })
			})))

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, tt.wantCode, rec.Code)
			var body server.StatusBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.wantStatus, body.Status)
		})
	}
}
