// Package smtp delivers mail over SMTP using gomail. One Open dials,
// negotiates TLS and authenticates; the session is then reused for every send.
// A failed send leaves the SMTP transaction open and gomail never issues
// RSET, so the session drops that connection and dials again on the next send.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

// Transport implements mailer.Transport.
type Transport struct {
	dialer *gomail.Dialer
	cfg    Config
}

// New creates an SMTP transport. The configuration is validated here so that
// credential problems surface before a batch starts.
func New(cfg Config) (*Transport, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for local relays
		MinVersion:         tls.VersionTLS12,
	}

	switch cfg.AuthMethod {
	case AuthNone:
		d.Username, d.Password = "", ""
	case AuthXOAuth2:
		d.Password = ""
		d.Auth = &xoauth2Auth{username: cfg.Username, source: tokenSource(cfg.OAuth2)}
	}

	return &Transport{dialer: d, cfg: cfg}, nil
}

// Open dials the server and authenticates.
func (t *Transport) Open(ctx context.Context) (mailer.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, mailer.SessionError("smtp", err)
	}

	type result struct {
		sc  gomail.SendCloser
		err error
	}
	done := make(chan result, 1)
	go func() {
		sc, err := t.dialer.Dial()
		done <- result{sc: sc, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, mailer.SessionError(t.Addr(), r.err)
		}
		return &session{sc: r.sc, dial: t.dialer.Dial}, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				_ = r.sc.Close()
			}
		}()
		return nil, mailer.SessionError(t.Addr(), ctx.Err())
	}
}

// Addr returns host:port.
func (t *Transport) Addr() string {
	return fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
}

type session struct {
	dial func() (gomail.SendCloser, error)

	mu     sync.Mutex
	sc     gomail.SendCloser // nil after a failed send until the next redial
	closed bool
}

func (s *session) Send(ctx context.Context, email *mailer.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := BuildMessage(email)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return mailer.ErrSessionClosed
	}
	if s.sc == nil {
		sc, err := s.dial()
		if err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
		s.sc = sc
	}

	if err := gomail.Send(s.sc, m); err != nil {
		_ = s.sc.Close()
		s.sc = nil
		return err
	}
	return nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.sc == nil {
		return nil
	}
	return s.sc.Close()
}

func tokenSource(cfg OAuth2Config) oauth2.TokenSource {
	if cfg.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
	}
	return oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
}

var _ mailer.Transport = (*Transport)(nil)
