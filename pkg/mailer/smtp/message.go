package smtp

import (
	"io"
	"mime"

	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

// BuildMessage converts an Email to a gomail message: a text/plain part,
// an optional text/html alternative and the attachments.
func BuildMessage(email *mailer.Email) (*gomail.Message, error) {
	if email.From == "" {
		return nil, ErrNoSender
	}
	if len(email.To) == 0 {
		return nil, mailer.ErrNoRecipient
	}

	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetHeader("From", email.From)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	if email.ReplyTo != "" {
		m.SetHeader("Reply-To", email.ReplyTo)
	}
	for k, v := range email.Headers {
		m.SetHeader(k, v)
	}

	m.SetBody("text/plain", email.Text)
	if email.HTML != "" {
		m.AddAlternative("text/html", email.HTML)
	}

	for _, a := range email.Attachments {
		content := a.Content
		m.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {contentType(a)},
			}),
		)
	}
	return m, nil
}

func contentType(a mailer.Attachment) string {
	mt, _, err := mime.ParseMediaType(a.ContentType)
	if err != nil || mt == "" {
		mt = "application/octet-stream"
	}
	return mime.FormatMediaType(mt, map[string]string{"name": a.Filename})
}
