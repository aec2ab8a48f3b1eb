package smtp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

// fakeServer is a minimal SMTP server that records accepted messages.
type fakeServer struct {
	ln     net.Listener
	reject map[string]bool

	mu       sync.Mutex
	conns    int
	messages []string
	rcpts    []string
}

func newFakeServer(t *testing.T, reject ...string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{ln: ln, reject: map[string]bool{}}
	for _, r := range reject {
		s.reject[r] = true
	}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeServer) config() Config {
	host, portStr, _ := net.SplitHostPort(s.ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return Config{Host: host, Port: port}
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	// inTx tracks an open mail transaction, as real servers do: a second
	// MAIL before DATA completes or RSET is refused.
	inTx := false

	reply("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			reply("250-fake")
			reply("250 HELP")
		case strings.HasPrefix(cmd, "MAIL"):
			if inTx {
				reply("503 5.5.1 Error: nested MAIL command")
				continue
			}
			inTx = true
			reply("250 OK")
		case strings.HasPrefix(cmd, "RSET"):
			inTx = false
			reply("250 OK")
		case strings.HasPrefix(cmd, "HELO"), strings.HasPrefix(cmd, "NOOP"):
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT"):
			addr := strings.Trim(strings.TrimPrefix(strings.TrimSpace(line)[len("RCPT TO:"):], " "), "<>")
			if s.reject[addr] {
				reply("550 mailbox unavailable")
				continue
			}
			s.mu.Lock()
			s.rcpts = append(s.rcpts, addr)
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 go ahead")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			s.mu.Lock()
			s.messages = append(s.messages, b.String())
			s.mu.Unlock()
			inTx = false
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func (s *fakeServer) snapshot() (conns int, rcpts []string, messages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns, append([]string(nil), s.rcpts...), append([]string(nil), s.messages...)
}

func testEmail(to string) *mailer.Email {
	return &mailer.Email{
		From:    "sender@example.com",
		To:      []string{to},
		Subject: "Hello",
		Text:    "Dear friend",
	}
}

func TestTransport_SessionReused(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	tr, err := New(srv.config())
	require.NoError(t, err)

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)

	for _, to := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, sess.Send(context.Background(), testEmail(to)))
	}
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close(), "second close is a no-op")

	conns, rcpts, messages := srv.snapshot()
	require.Equal(t, 1, conns)
	require.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, rcpts)
	require.Len(t, messages, 3)
	require.Contains(t, messages[0], "Subject: Hello")

	require.ErrorIs(t, sess.Send(context.Background(), testEmail("d@example.com")), mailer.ErrSessionClosed)
}

func TestTransport_RejectedRecipient(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, "bad@example.com")
	tr, err := New(srv.config())
	require.NoError(t, err)

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	err = sess.Send(context.Background(), testEmail("bad@example.com"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "550")
}

func TestTransport_RejectedRecipientDoesNotPoisonSession(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, "bad@example.com")
	tr, err := New(srv.config())
	require.NoError(t, err)

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	ctx := context.Background()
	require.NoError(t, sess.Send(ctx, testEmail("a@example.com")))
	require.ErrorContains(t, sess.Send(ctx, testEmail("bad@example.com")), "550")
	require.NoError(t, sess.Send(ctx, testEmail("c@example.com")))
	require.NoError(t, sess.Send(ctx, testEmail("d@example.com")))

	conns, rcpts, messages := srv.snapshot()
	require.Equal(t, 2, conns, "the connection is replaced once after the rejection")
	require.Equal(t, []string{"a@example.com", "c@example.com", "d@example.com"}, rcpts)
	require.Len(t, messages, 3)
}

func TestTransport_ReconnectFailure(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, "bad@example.com")
	tr, err := New(srv.config())
	require.NoError(t, err)

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, sess.Send(ctx, testEmail("bad@example.com")))

	require.NoError(t, srv.ln.Close())
	err = sess.Send(ctx, testEmail("c@example.com"))
	require.ErrorContains(t, err, "reconnect")
	require.NoError(t, sess.Close())
}

func TestTransport_OpenFailure(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	tr, err := New(Config{Host: "127.0.0.1", Port: addr.Port})
	require.NoError(t, err)

	sess, err := tr.Open(context.Background())
	require.Nil(t, sess)
	require.ErrorIs(t, err, mailer.ErrSessionFailed)
}

func TestTransport_OpenCanceled(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	tr, err := New(srv.config())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Open(ctx)
	require.ErrorIs(t, err, mailer.ErrSessionFailed)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestNew_Config(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		tr, err := New(Config{Username: "me@gmail.com", Password: "app-password"})
		require.NoError(t, err)
		require.Equal(t, "smtp.gmail.com:587", tr.Addr())
		require.Equal(t, AuthPlain, tr.cfg.AuthMethod)
		require.False(t, tr.dialer.SSL)
	})

	t.Run("implicit tls on 465", func(t *testing.T) {
		t.Parallel()
		tr, err := New(Config{Port: 465, Username: "me", Password: "pw"})
		require.NoError(t, err)
		require.True(t, tr.dialer.SSL)
	})

	t.Run("plain without password", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Username: "me"})
		require.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("xoauth2", func(t *testing.T) {
		t.Parallel()
		tr, err := New(Config{Username: "me", AuthMethod: AuthXOAuth2, OAuth2: OAuth2Config{AccessToken: "tok"}})
		require.NoError(t, err)
		require.IsType(t, &xoauth2Auth{}, tr.dialer.Auth)

		_, err = New(Config{Username: "me", AuthMethod: AuthXOAuth2})
		require.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("unknown auth", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{AuthMethod: "kerberos"})
		require.ErrorIs(t, err, ErrUnknownAuthMethod)
	})
}
