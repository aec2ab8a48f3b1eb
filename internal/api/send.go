package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dmitrymomot/bulkmail/internal/dispatch"
	"github.com/dmitrymomot/bulkmail/internal/recipients"
	"github.com/dmitrymomot/bulkmail/internal/server"
	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

// Multipart field names.
const (
	fieldTable      = "excel"
	fieldMessage    = "message"
	fieldAttachment = "image"
	fieldSubject    = "subject"
)

// SendResponse is the body of a completed batch.
type SendResponse struct {
	Status  string `json:"status"`
	LogURL  string `json:"log_url"`
	LogID   string `json:"log_id"`
	BatchID string `json:"batch_id"`
	Total   int    `json:"total"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

func (h *Handler) send(c server.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.cfg.MaxUploadBytes)
	if err := req.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		if tooLarge(err) {
			return server.ErrRequestTooLarge(StatusUploadTooLarge, server.WithError(err))
		}
		return server.ErrBadRequest(StatusMissingInput, server.WithError(err))
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	file, header, err := c.FormFile(fieldTable)
	if err != nil {
		return server.ErrBadRequest(StatusMissingInput, server.WithError(err))
	}
	data, err := readPart(file)
	if err != nil {
		return err
	}

	_, hasMessage := req.MultipartForm.Value[fieldMessage]
	msg, err := mailer.ParseMessageFile([]byte(c.FormValue(fieldMessage)))
	if err != nil {
		return server.ErrBadRequest("❌ "+err.Error(), server.WithError(err))
	}
	if !hasMessage || strings.TrimSpace(msg.Body) == "" {
		return server.ErrBadRequest(StatusMissingInput)
	}

	table, err := recipients.Parse(header.Filename, data, h.cfg.TableOptions...)
	if err != nil {
		return tableError(err)
	}

	att, err := h.attachment(c)
	if err != nil {
		return err
	}

	subject := strings.TrimSpace(c.FormValue(fieldSubject))
	if subject == "" {
		subject = msg.Subject
	}

	c.LogInfo("batch received",
		"file", header.Filename,
		"recipients", table.Len(),
		"skipped", table.Skipped(),
		"name_column", table.HasNameColumn(),
	)

	res, err := h.runner.Run(c.Context(), dispatch.Batch{
		Table:      table,
		Template:   msg.Body,
		Subject:    subject,
		Attachment: att,
	})
	if err != nil {
		return runError(err)
	}

	return c.JSON(http.StatusOK, SendResponse{
		Status:  res.Status,
		LogURL:  res.LogURL,
		LogID:   res.LogID,
		BatchID: res.ID,
		Total:   res.Total,
		Sent:    res.Sent,
		Failed:  res.Failed,
		Skipped: res.Skipped,
	})
}

// attachment reads the optional shared attachment once; every message reuses the bytes.
func (h *Handler) attachment(c server.Context) (*mailer.Attachment, error) {
	file, header, err := c.FormFile(fieldAttachment)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, server.ErrBadRequest("❌ Invalid attachment.", server.WithError(err))
	}
	data, err := readPart(file)
	if err != nil {
		return nil, err
	}
	return mailer.NewAttachment(header.Filename, data), nil
}

func readPart(f multipart.File) ([]byte, error) {
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge)
}

func tableError(err error) error {
	switch {
	case errors.Is(err, recipients.ErrMissingColumn):
		return server.ErrBadRequest(StatusMissingEmail, server.WithError(err))
	case errors.Is(err, recipients.ErrInvalidTable):
		return server.ErrBadRequest("❌ "+err.Error(), server.WithError(err))
	default:
		return err
	}
}

func runError(err error) error {
	switch {
	case errors.Is(err, dispatch.ErrValidation):
		return server.ErrBadRequest("❌ "+err.Error(), server.WithError(err))
	case errors.Is(err, dispatch.ErrSession):
		return server.ErrBadGateway(statusInternalPrefix+err.Error(), server.WithError(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return server.ErrServiceUnavailable(StatusBusy, server.WithError(err))
	default:
		return err
	}
}
