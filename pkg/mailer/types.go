package mailer

import (
	"net/mail"

	"github.com/dmitrymomot/bulkmail/pkg/storage"
)

// Tags represents email tags/categories that can be either presence-only
// (using struct{}{}) or key-value pairs (using string values).
// Providers without tag support ignore them.
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats a name and email into RFC 5322 address format.
// Non-ASCII names are encoded as RFC 2047 words.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers     map[string]string // Custom headers, e.g. Message-ID
	Tags        Tags              // Provider-specific tags/categories
	Subject     string
	HTML        string // Optional HTML alternative
	Text        string // Plain text body
	From        string // "Name <address>" or bare address
	ReplyTo     string
	To          []string
	Attachments []Attachment
}

// Attachment is a file shared by every message of a batch.
// Content is read-only after NewAttachment returns.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// NewAttachment copies data and infers the content type from the filename extension.
// It returns nil when data is empty.
func NewAttachment(filename string, data []byte) *Attachment {
	if len(data) == 0 {
		return nil
	}
	if filename == "" {
		filename = "attachment"
	}
	content := make([]byte, len(data))
	copy(content, data)
	return &Attachment{
		Filename:    filename,
		ContentType: storage.MIMEFromFilename(filename),
		Content:     content,
	}
}

// Size returns the attachment size in bytes.
func (a *Attachment) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Content)
}
