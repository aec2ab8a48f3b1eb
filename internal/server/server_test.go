package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/internal/server"
)

type handlerFunc func(r server.Router)

func (f handlerFunc) Routes(r server.Router) { f(r) }

type ctxKey struct{}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	var order []string
	trace := func(name string) server.Middleware {
		return func(next server.HandlerFunc) server.HandlerFunc {
			return func(c server.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	srv := server.New(
		server.WithMiddleware(trace("global"), func(next server.HandlerFunc) server.HandlerFunc {
			return func(c server.Context) error {
				c.Set(ctxKey{}, "from-middleware")
				return next(c)
			}
		}),
		server.WithHandlers(handlerFunc(func(r server.Router) {
			r.GET("/items/{id}", func(c server.Context) error {
				return c.JSON(http.StatusOK, map[string]string{
					"id":    c.Param("id"),
					"q":     c.Query("q"),
					"value": c.Get(ctxKey{}).(string),
				})
			}, trace("route-a"), trace("route-b"))
			r.Route("/text", func(r server.Router) {
				r.GET("/", func(c server.Context) error {
					return c.Stream(http.StatusOK, "text/plain; charset=utf-8", strings.NewReader("hello"))
				})
			})
		})),
	)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42?q=x", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, map[string]string{"id": "42", "q": "x", "value": "from-middleware"}, body)
	require.Equal(t, []string{"global", "route-a", "route-b"}, order)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/text/", nil))
	require.Equal(t, "hello", rec.Body.String())
	require.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestServer_NotFoundAndMethod(t *testing.T) {
	t.Parallel()

	srv := server.New(server.WithHandlers(handlerFunc(func(r server.Router) {
		r.POST("/send", func(c server.Context) error { return c.NoContent(http.StatusNoContent) })
	})))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Not found")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_ErrorAfterWrite(t *testing.T) {
	t.Parallel()

	srv := server.New(server.WithHandlers(handlerFunc(func(r server.Router) {
		r.GET("/", func(c server.Context) error {
			_ = c.String(http.StatusOK, "partial")
			return errors.New("late failure")
		})
	})))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "partial", rec.Body.String())
}

func TestServer_MiddlewareError(t *testing.T) {
	t.Parallel()

	deny := func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			return server.ErrBadRequest("❌ denied")
		}
	}
	srv := server.New(
		server.WithMiddleware(deny),
		server.WithHandlers(handlerFunc(func(r server.Router) {
			r.GET("/", func(c server.Context) error { return c.NoContent(http.StatusOK) })
		})),
	)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "denied")
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	healthy := true
	srv := server.New(server.WithHealthChecks(
		server.WithReadinessCheck("storage", func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("unreachable")
		}),
	))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "unreachable")
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	t.Run("stops when context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		hookCalled := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- server.New().Run("127.0.0.1:0",
				server.WithContext(ctx),
				server.StartupHook(func(context.Context) error {
					close(hookCalled)
					return nil
				}),
				server.ShutdownHook(func(context.Context) error { return nil }),
			)
		}()

		<-hookCalled
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("startup hook failure", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		err := server.New().Run("127.0.0.1:0",
			server.StartupHook(func(context.Context) error { return boom }),
		)
		require.ErrorIs(t, err, boom)
	})

	t.Run("shutdown hook failure is reported", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		boom := errors.New("close failed")
		err := server.New().Run("127.0.0.1:0",
			server.WithContext(ctx),
			server.ShutdownHook(func(context.Context) error { return boom }),
		)
		require.ErrorIs(t, err, boom)
	})
}
