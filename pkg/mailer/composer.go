package mailer

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/dmitrymomot/bulkmail/pkg/sanitizer"
)

// ComposerConfig describes the sender identity and body options.
type ComposerConfig struct {
	FromName    string
	FromAddress string // required
	ReplyTo     string // defaults to FromAddress

	// Signature is an HTML fragment appended to the HTML alternative only.
	// When empty, a signature is built from FromName.
	Signature string

	// PlainOnly disables the HTML alternative.
	PlainOnly bool
}

// Composer builds per-recipient messages.
type Composer struct {
	cfg       ComposerConfig
	md        goldmark.Markdown
	signature string
	domain    string
}

// NewComposer creates a Composer.
func NewComposer(cfg ComposerConfig) *Composer {
	if cfg.ReplyTo == "" {
		cfg.ReplyTo = cfg.FromAddress
	}

	signature := cfg.Signature
	if signature == "" && cfg.FromName != "" {
		signature = "<p>Best regards,<br>" + html.EscapeString(cfg.FromName) + "</p>"
	}

	domain := "localhost"
	if _, d, ok := strings.Cut(cfg.FromAddress, "@"); ok && d != "" {
		domain = d
	}

	return &Composer{
		cfg: cfg,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough, extension.Table),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		signature: sanitizer.SanitizeHTML(signature),
		domain:    domain,
	}
}

// Compose builds a message for one recipient. The plain body is used as is.
// The HTML alternative renders body as markdown, sanitizes it and appends the signature.
// If markdown conversion fails the message is sent as plain text only.
func (c *Composer) Compose(to, subject, body string, att *Attachment) *Email {
	email := &Email{
		From:    Recipient(c.cfg.FromName, c.cfg.FromAddress),
		ReplyTo: c.cfg.ReplyTo,
		To:      []string{to},
		Subject: subject,
		Text:    body,
		Headers: map[string]string{
			"Message-ID": fmt.Sprintf("<%s@%s>", uuid.NewString(), c.domain),
		},
	}

	if !c.cfg.PlainOnly {
		if htmlBody, err := c.renderHTML(body); err == nil {
			email.HTML = htmlBody
		}
	}

	if att != nil {
		email.Attachments = []Attachment{*att}
	}
	return email
}

func (c *Composer) renderHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	out := sanitizer.SanitizeHTML(buf.String())
	if c.signature != "" {
		out += "\n" + c.signature
	}
	return out, nil
}
