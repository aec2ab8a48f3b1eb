package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseWriter_WriteHeaderOnce(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)

	require.Equal(t, http.StatusNotFound, rw.Status())
	require.Equal(t, http.StatusNotFound, w.Code)
	require.True(t, rw.Written())
}

func TestResponseWriter_ImplicitStatus(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	n, err := rw.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(5), rw.Size())
}

func TestResponseWriter_WriteAfterHeader(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusAccepted)
	_, _ = rw.Write([]byte("a"))
	_, _ = rw.Write([]byte("bc"))

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, "abc", w.Body.String())
	require.Equal(t, int64(3), rw.Size())
}

func TestResponseWriter_Unwrap(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)
	require.Same(t, w, rw.Unwrap())

	rw.Flush()
	require.True(t, w.Flushed)
	require.True(t, rw.Written())
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, http.NewResponseController(rw).Flush())
}
