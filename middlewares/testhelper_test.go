package middlewares_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrymomot/bulkmail/internal/server"
	"github.com/dmitrymomot/bulkmail/pkg/logger"
)

type routes func(r server.Router)

func (f routes) Routes(r server.Router) { f(r) }

// serve builds a server with mw around a single handler on every method of "/".
func serve(t *testing.T, h server.HandlerFunc, opts []server.Option, mw ...server.Middleware) http.Handler {
	t.Helper()
	opts = append(opts,
		server.WithMiddleware(mw...),
		server.WithHandlers(routes(func(r server.Router) {
			r.GET("/", h)
			r.POST("/", h)
			r.OPTIONS("/", h)
		})),
	)
	return server.New(opts...).Handler()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler(c server.Context) error {
	return c.String(http.StatusOK, "ok")
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func jsonLogger(w *syncBuffer, extractors ...logger.ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(logger.NewLogHandlerDecorator(h, extractors...))
}
