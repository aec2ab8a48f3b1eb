// Package resend delivers mail through the Resend HTTP API.
package resend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

// ErrMissingAPIKey indicates the transport has no API key.
var ErrMissingAPIKey = errors.New("resend: api key is required")

// Transport implements mailer.Transport. The API is stateless, so a session
// is the shared client wrapped by mailer.SenderSession.
type Transport struct {
	sender *Sender
}

// NewTransport creates a Resend transport.
func NewTransport(cfg Config) (*Transport, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Transport{sender: s}, nil
}

// Open implements mailer.Transport. It makes one authenticated API call so
// a bad key fails the batch before anything is sent.
func (t *Transport) Open(ctx context.Context) (mailer.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, mailer.SessionError("resend", err)
	}
	if err := t.sender.ping(ctx); err != nil {
		return nil, mailer.SessionError("resend", err)
	}
	return mailer.SenderSession(t.sender), nil
}

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
}

// New creates a new Resend sender.
func New(cfg Config) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("resend: invalid base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Sender{client: client}, nil
}

// ping lists domains. Send-only keys are refused with a "restricted" error,
// which still proves the key is valid.
func (s *Sender) ping(ctx context.Context) error {
	_, err := s.client.Domains.ListWithContext(ctx)
	if err == nil || strings.Contains(strings.ToLower(err.Error()), "restricted") {
		return nil
	}
	return err
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	req := &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Headers: email.Headers,
	}
	if len(email.Attachments) > 0 {
		req.Attachments = convertAttachments(email.Attachments)
	}
	if len(email.Tags) > 0 {
		req.Tags = convertTags(email.Tags)
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

func convertAttachments(attachments []mailer.Attachment) []*resend.Attachment {
	result := make([]*resend.Attachment, len(attachments))
	for i, a := range attachments {
		result[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		}
	}
	return result
}

func convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		result = append(result, resend.Tag{Name: tagName(name), Value: tagName(tagValue(value))})
	}
	return result
}

// tagName keeps the characters Resend accepts in tag names and values.
func tagName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

// tagValue converts any value to a string. Presence-only tags become "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

var (
	_ mailer.Transport = (*Transport)(nil)
	_ mailer.Sender    = (*Sender)(nil)
)
