// Package mailer builds personalized messages and delivers them over a
// reusable session.
//
// # Architecture
//
//   - Transport: opens a Session (connect, TLS, authenticate) once per batch
//   - Session: sends messages over the open connection
//   - Composer: turns a recipient, subject and body into an Email
//   - Mailer: validates, composes and sends, reporting failures as *DeliveryError
//
// Transports live in subpackages: smtp (gomail), resend (HTTP API) and
// ses (AWS SES v2 raw messages).
//
// # Usage
//
//	transport := smtp.New(smtp.Config{
//		Host:     "smtp.gmail.com",
//		Port:     587,
//		Username: "me@example.com",
//		Password: os.Getenv("EMAIL_PASSWORD"),
//	})
//
//	session, err := transport.Open(ctx)
//	if err != nil {
//		return err // matches mailer.ErrSessionFailed
//	}
//	defer session.Close()
//
//	m := mailer.New(mailer.NewComposer(mailer.ComposerConfig{
//		FromName:    "Argha",
//		FromAddress: "me@example.com",
//	}))
//
//	att := mailer.NewAttachment("flyer.png", data)
//	err = m.Send(ctx, session, "alice@example.com", "Hello", "Dear Alice", att)
//
// # Message bodies
//
// The plain text body is sent verbatim. Unless PlainOnly is set, an HTML
// alternative is produced by rendering the body as markdown, sanitizing it
// and appending the signature block. The signature never appears in the
// plain text part.
//
// # Attachments
//
// NewAttachment copies the bytes once. Every message of a batch embeds the
// same full content; nothing is read through a shared cursor.
package mailer
