package dispatch

import "errors"

var (
	// ErrValidation indicates a batch rejected before any message was sent.
	ErrValidation = errors.New("invalid batch")

	// ErrSession indicates the mail session could not be opened. Nothing was sent.
	ErrSession = errors.New("mail session unavailable")
)
