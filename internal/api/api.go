// Package api exposes batch dispatch over HTTP: POST /send runs a batch from
// a multipart upload, GET /logs/{id} downloads its dispatch log.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dmitrymomot/bulkmail/internal/dispatch"
	"github.com/dmitrymomot/bulkmail/internal/recipients"
	"github.com/dmitrymomot/bulkmail/internal/server"
	"github.com/dmitrymomot/bulkmail/middlewares"
)

// Status texts returned in {"status": ...}.
const (
	StatusLive            = "✅ Bulk mail backend is live and running!"
	StatusMissingInput    = "❌ Excel file and message are required."
	StatusMissingEmail    = "❌ Excel must contain 'Email' column."
	StatusUploadTooLarge  = "❌ Upload is too large."
	StatusBusy            = "❌ Another batch is in progress, try again later."
	StatusLogNotFound     = "❌ Log not found."
	statusInternalPrefix  = "❌ Internal Server Error: "
	defaultMaxUploadBytes = 32 << 20
	defaultFetchTimeout   = 30 * time.Second
)

// Runner runs one batch. *dispatch.Dispatcher implements it.
type Runner interface {
	Run(ctx context.Context, b dispatch.Batch) (*dispatch.Result, error)
}

// LogReader opens persisted dispatch logs. *dispatchlog.Store implements it.
type LogReader interface {
	Open(ctx context.Context, logID string) (io.ReadCloser, error)
}

// Config configures the handler.
type Config struct {
	MaxUploadBytes int64         // whole request body limit, default 32 MiB
	FetchTimeout   time.Duration // log download timeout, default 30s
	TableOptions   []recipients.Option
}

// Handler serves the batch API.
type Handler struct {
	runner Runner
	logs   LogReader
	cfg    Config
}

// New creates the API handler.
func New(runner Runner, logs LogReader, cfg Config) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Handler{runner: runner, logs: logs, cfg: cfg}
}

// Routes implements server.Handler.
func (h *Handler) Routes(r server.Router) {
	r.GET("/", h.home)
	r.POST("/send", h.send)
	r.GET("/logs/{id}", h.downloadLog, middlewares.Timeout(h.cfg.FetchTimeout))
}

func (h *Handler) home(c server.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": StatusLive})
}
