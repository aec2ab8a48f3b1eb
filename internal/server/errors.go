package server

import (
	"errors"
	"net/http"
)

// HTTPError is an error with everything needed to render it.
type HTTPError struct {
	// Err is the underlying error (logged, never exposed).
	Err error

	// Message is the user-facing status text.
	Message string

	// RequestID is the request tracking ID.
	RequestID string

	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func newStatusError(code int, message string, opts []HTTPErrorOption) *HTTPError {
	e := NewHTTPError(code, message)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Convenience constructors for the errors the API returns.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return newStatusError(http.StatusBadRequest, message, opts)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return newStatusError(http.StatusNotFound, message, opts)
}

func ErrRequestTooLarge(message string, opts ...HTTPErrorOption) *HTTPError {
	return newStatusError(http.StatusRequestEntityTooLarge, message, opts)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return newStatusError(http.StatusInternalServerError, message, opts)
}

func ErrBadGateway(message string, opts ...HTTPErrorOption) *HTTPError {
	return newStatusError(http.StatusBadGateway, message, opts)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return newStatusError(http.StatusServiceUnavailable, message, opts)
}

// AsHTTPError extracts the HTTPError from an error chain.
// Returns nil if there is none.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// StatusBody is the JSON body of every error response.
type StatusBody struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// DefaultErrorHandler renders HTTPErrors as {"status": message} with their code.
// Anything else becomes a 500 whose status text carries the error message.
func DefaultErrorHandler(c Context, err error) error {
	httpErr := AsHTTPError(err)
	if httpErr == nil {
		httpErr = ErrInternal("❌ Internal Server Error: "+err.Error(), WithError(err))
	}
	if httpErr.Code >= http.StatusInternalServerError {
		c.LogError("request failed", "status", httpErr.Code, "error", err)
	} else {
		c.LogDebug("request rejected", "status", httpErr.Code, "error", err)
	}
	return c.JSON(httpErr.Code, StatusBody{Status: httpErr.Message, RequestID: httpErr.RequestID})
}
