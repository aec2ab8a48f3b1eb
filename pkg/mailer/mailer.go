package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

// Mailer composes and delivers one message per call over an open Session.
type Mailer struct {
	composer *Composer
}

// New creates a Mailer.
func New(composer *Composer) *Mailer {
	return &Mailer{composer: composer}
}

// SendOption customizes a single send.
type SendOption func(*Email)

// WithTag adds a provider tag to the message.
func WithTag(name, value string) SendOption {
	return func(e *Email) {
		if e.Tags == nil {
			e.Tags = Tags{}
		}
		e.Tags[name] = value
	}
}

// WithHeader sets a custom header on the message.
func WithHeader(name, value string) SendOption {
	return func(e *Email) {
		e.Headers[name] = value
	}
}

// Send builds a message for to and sends it over session.
// Every failure is returned as *DeliveryError.
func (m *Mailer) Send(ctx context.Context, session Session, to, subject, body string, att *Attachment, opts ...SendOption) error {
	to = strings.TrimSpace(to)
	if err := validate(to, subject, body); err != nil {
		return &DeliveryError{Recipient: to, Cause: err}
	}

	email := m.composer.Compose(to, subject, body, att)
	for _, opt := range opts {
		opt(email)
	}

	if err := session.Send(ctx, email); err != nil {
		return &DeliveryError{Recipient: to, Cause: err}
	}
	return nil
}

func validate(to, subject, body string) error {
	if to == "" {
		return ErrNoRecipient
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	if addr.Address != to {
		return fmt.Errorf("%w: %q is not a bare address", ErrInvalidRecipient, to)
	}
	if strings.TrimSpace(subject) == "" {
		return ErrNoSubject
	}
	if strings.TrimSpace(body) == "" {
		return ErrNoContent
	}
	return nil
}
