package mailer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("email must have at least one recipient")

	// ErrInvalidRecipient indicates the recipient address could not be parsed.
	ErrInvalidRecipient = errors.New("invalid recipient address")

	// ErrNoSubject indicates no subject was provided.
	ErrNoSubject = errors.New("email must have a subject")

	// ErrNoContent indicates the message has no body.
	ErrNoContent = errors.New("email must have content")

	// ErrSessionFailed indicates the transport could not connect, handshake or authenticate.
	ErrSessionFailed = errors.New("failed to open mail session")

	// ErrSessionClosed indicates a send on a closed session.
	ErrSessionClosed = errors.New("mail session is closed")

	// ErrSendFailed indicates email sending failed.
	ErrSendFailed = errors.New("failed to send email")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter in a message file.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
)

// DeliveryError is returned when a single message could not be delivered.
// It matches ErrSendFailed with errors.Is.
type DeliveryError struct {
	Recipient string
	Cause     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Cause)
}

func (e *DeliveryError) Unwrap() error { return e.Cause }

func (e *DeliveryError) Is(target error) bool { return target == ErrSendFailed }

// SessionError wraps a transport failure while opening a session.
func SessionError(transport string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrSessionFailed, transport, cause)
}
