package mailer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

// MockSession is a mock implementation of mailer.Session.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Send(ctx context.Context, email *mailer.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockSession) Close() error {
	return m.Called().Error(0)
}

func newMailer() *mailer.Mailer {
	return mailer.New(mailer.NewComposer(mailer.ComposerConfig{
		FromName:    "Argha",
		FromAddress: "argha@example.com",
	}))
}

func TestMailer_Send_Success(t *testing.T) {
	t.Parallel()

	session := &MockSession{}
	session.On("Send", mock.Anything, mock.MatchedBy(func(e *mailer.Email) bool {
		return e.To[0] == "alice@example.com" &&
			e.Subject == "Hello" &&
			e.Text == "Dear Alice" &&
			e.Tags["batch_id"] == "b1" &&
			e.Headers["X-Batch"] == "b1"
	})).Return(nil).Once()

	err := newMailer().Send(context.Background(), session, " alice@example.com ", "Hello", "Dear Alice", nil,
		mailer.WithTag("batch_id", "b1"), mailer.WithHeader("X-Batch", "b1"))
	require.NoError(t, err)
	session.AssertExpectations(t)
}

func TestMailer_Send_TransportFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("550 mailbox unavailable")
	session := &MockSession{}
	session.On("Send", mock.Anything, mock.Anything).Return(cause).Once()

	err := newMailer().Send(context.Background(), session, "bob@example.com", "Hello", "Hi", nil)
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	require.ErrorIs(t, err, cause)

	var de *mailer.DeliveryError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "bob@example.com", de.Recipient)
	require.Contains(t, err.Error(), "550 mailbox unavailable")
}

func TestMailer_Send_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		to      string
		subject string
		body    string
		want    error
	}{
		{name: "no recipient", to: "  ", subject: "s", body: "b", want: mailer.ErrNoRecipient},
		{name: "invalid recipient", to: "not-an-address", subject: "s", body: "b", want: mailer.ErrInvalidRecipient},
		{name: "display name", to: "Bob <bob@example.com>", subject: "s", body: "b", want: mailer.ErrInvalidRecipient},
		{name: "no subject", to: "a@example.com", subject: " ", body: "b", want: mailer.ErrNoSubject},
		{name: "no body", to: "a@example.com", subject: "s", body: "\n", want: mailer.ErrNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			session := &MockSession{}
			err := newMailer().Send(context.Background(), session, tt.to, tt.subject, tt.body, nil)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, mailer.ErrSendFailed)
			session.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestMailer_Send_SharedAttachment(t *testing.T) {
	t.Parallel()

	data := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	att := mailer.NewAttachment("flyer.png", data)

	var seen [][]byte
	session := &MockSession{}
	session.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		e := args.Get(1).(*mailer.Email)
		require.Len(t, e.Attachments, 1)
		seen = append(seen, e.Attachments[0].Content)
	}).Return(nil)

	m := newMailer()
	for _, to := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, m.Send(context.Background(), session, to, "s", "b", att))
	}

	require.Len(t, seen, 3)
	for _, got := range seen {
		require.Equal(t, data, got)
	}
}

type recordingSender struct{ sent []*mailer.Email }

func (r *recordingSender) Send(_ context.Context, e *mailer.Email) error {
	r.sent = append(r.sent, e)
	return nil
}

func TestSenderSession(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	session := mailer.SenderSession(sender)

	require.NoError(t, session.Send(context.Background(), &mailer.Email{}))
	require.NoError(t, session.Close())
	require.ErrorIs(t, session.Send(context.Background(), &mailer.Email{}), mailer.ErrSessionClosed)
	require.Len(t, sender.sent, 1)
}

func TestSessionError(t *testing.T) {
	t.Parallel()

	cause := errors.New("535 authentication failed")
	err := mailer.SessionError("smtp", cause)
	require.ErrorIs(t, err, mailer.ErrSessionFailed)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "smtp")
}
