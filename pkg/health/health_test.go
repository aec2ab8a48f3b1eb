package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/pkg/health"
)

func ok(context.Context) error { return nil }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("all healthy", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, health.Run(context.Background(), health.Checks{"a": ok, "b": ok}))
	})

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, health.Run(context.Background(), nil))
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		err := health.Run(context.Background(), health.Checks{
			"storage": ok,
			"smtp":    func(context.Context) error { return errors.New("auth rejected") },
		})
		require.ErrorIs(t, err, health.ErrCheckFailed)
		require.ErrorContains(t, err, "smtp: auth rejected")
		require.NotContains(t, err.Error(), "storage")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		err := health.Run(context.Background(), health.Checks{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}, health.WithTimeout(20*time.Millisecond))
		require.ErrorIs(t, err, health.ErrCheckFailed)
		require.ErrorIs(t, err, health.ErrCheckTimeout)
	})
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	h := health.ReadinessHandler(health.Checks{
		"storage":   func(context.Context) error { return errors.New("bucket missing") },
		"transport": func(context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, "unhealthy\nstorage: unhealthy (bucket missing)\ntransport: healthy\n", rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req.Header.Set("Accept", "application/json")
	h(rec, req)

	var resp health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, health.StatusUnhealthy, resp.Status)
	require.Equal(t, "bucket missing", resp.Checks["storage"].Error)
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live?format=json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, "healthy\n", rec.Body.String())
}
