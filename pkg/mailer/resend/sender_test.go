package resend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/pkg/mailer"
)

func TestTransport_Send(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		reqs []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		if r.URL.Path == "/domains" {
			writeDomains(w)
			return
		}
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		reqs = append(reqs, body)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	t.Cleanup(srv.Close)

	tr, err := NewTransport(Config{APIKey: "re_test", BaseURL: srv.URL})
	require.NoError(t, err)

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	err = sess.Send(context.Background(), &mailer.Email{
		From:    "sender@example.com",
		To:      []string{"alice@example.com"},
		Subject: "Hello",
		Text:    "Dear Alice",
		Tags:    mailer.Tags{"batch_id": "20260101_ab"},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reqs, 1)
	require.Equal(t, "Hello", reqs[0]["subject"])
	require.Equal(t, []any{"alice@example.com"}, reqs[0]["to"])
}

func TestTransport_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/domains" {
			writeDomains(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	}))
	t.Cleanup(srv.Close)

	tr, err := NewTransport(Config{APIKey: "re_test", BaseURL: srv.URL})
	require.NoError(t, err)
	sess, err := tr.Open(context.Background())
	require.NoError(t, err)

	err = sess.Send(context.Background(), &mailer.Email{From: "a@example.com", To: []string{"x"}, Subject: "s", Text: "b"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "resend")
}

func writeDomains(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"object":"list","data":[],"has_more":false}`))
}

func TestTransport_Open(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"valid key", http.StatusOK, `{"object":"list","data":[]}`, false},
		{"send-only key", http.StatusUnauthorized, `{"statusCode":401,"name":"restricted_api_key","message":"This API key is restricted to only send emails"}`, false},
		{"invalid key", http.StatusUnauthorized, `{"statusCode":401,"name":"validation_error","message":"API key is invalid"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var sends int
			var mu sync.Mutex
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/domains" {
					mu.Lock()
					sends++
					mu.Unlock()
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			tr, err := NewTransport(Config{APIKey: "re_test", BaseURL: srv.URL})
			require.NoError(t, err)

			sess, err := tr.Open(context.Background())
			if tt.wantErr {
				require.Nil(t, sess)
				require.ErrorIs(t, err, mailer.ErrSessionFailed)
				require.ErrorContains(t, err, "API key is invalid")
			} else {
				require.NoError(t, err)
				require.NoError(t, sess.Close())
			}

			mu.Lock()
			defer mu.Unlock()
			require.Zero(t, sends)
		})
	}
}

func TestNew_MissingKey(t *testing.T) {
	t.Parallel()

	_, err := NewTransport(Config{})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestTagConversion(t *testing.T) {
	t.Parallel()

	require.Equal(t, "true", tagValue(struct{}{}))
	require.Equal(t, "42", tagValue(42))
	require.Equal(t, "batch_20260101_ab", tagName("batch 20260101.ab"))

	tags := convertTags(mailer.SimpleTags("bulk"))
	require.Len(t, tags, 1)
	require.Equal(t, "bulk", tags[0].Name)
	require.Equal(t, "true", tags[0].Value)
}
