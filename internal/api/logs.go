package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/bulkmail/internal/dispatchlog"
	"github.com/dmitrymomot/bulkmail/internal/server"
	"github.com/dmitrymomot/bulkmail/middlewares"
)

func (h *Handler) downloadLog(c server.Context) error {
	logID := c.Param("id")
	rc, err := h.logs.Open(middlewares.GetTimeoutContext(c), logID)
	if err != nil {
		if errors.Is(err, dispatchlog.ErrInvalidID) || errors.Is(err, dispatchlog.ErrNotFound) {
			return server.ErrNotFound(StatusLogNotFound, server.WithError(err))
		}
		return err
	}
	defer rc.Close()

	c.SetHeader("Content-Disposition", `attachment; filename="`+logID+`"`)
	c.SetHeader("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, "text/plain; charset=utf-8", rc)
}
