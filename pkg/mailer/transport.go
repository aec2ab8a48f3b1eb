package mailer

import (
	"context"
	"sync"
)

// Transport opens delivery sessions. Connection, TLS and authentication
// happen once per Open; the returned Session is reused for every message of a batch.
type Transport interface {
	Open(ctx context.Context) (Session, error)
}

// Session delivers messages over an established connection.
// A Session is not safe for concurrent use.
type Session interface {
	Send(ctx context.Context, email *Email) error
	Close() error
}

// Sender is implemented by stateless HTTP API providers.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context) (Session, error)

// Open implements Transport.
func (f TransportFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// SenderSession wraps a Sender into a Session. Close marks the session closed
// and later sends fail with ErrSessionClosed.
func SenderSession(s Sender) Session {
	return &senderSession{sender: s}
}

type senderSession struct {
	sender Sender
	mu     sync.Mutex
	closed bool
}

func (s *senderSession) Send(ctx context.Context, email *Email) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	return s.sender.Send(ctx, email)
}

func (s *senderSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
