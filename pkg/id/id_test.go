package id_test

import (
	"regexp"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bulkmail/pkg/id"
)

var crockford = regexp.MustCompile(`^[0-9A-HJ-NP-TV-Z]+$`)

func TestNewULID(t *testing.T) {
	t.Parallel()

	t.Run("length and alphabet", func(t *testing.T) {
		t.Parallel()

		ulid := id.NewULID()
		assert.Len(t, ulid, 26)
		require.True(t, crockford.MatchString(ulid), "invalid characters: %s", ulid)
	})

	t.Run("unique", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{}, 1000)
		for range 1000 {
			v := id.NewULID()
			_, dup := seen[v]
			require.False(t, dup, "duplicate ULID: %s", v)
			seen[v] = struct{}{}
		}
	})

	t.Run("sortable by time", func(t *testing.T) {
		t.Parallel()

		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		ids := []string{
			id.NewULIDAt(base.Add(2 * time.Second)),
			id.NewULIDAt(base),
			id.NewULIDAt(base.Add(time.Second)),
		}
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		require.Equal(t, []string{ids[1], ids[2], ids[0]}, sorted)
	})

	t.Run("same millisecond shares prefix", func(t *testing.T) {
		t.Parallel()

		ts := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
		a, b := id.NewULIDAt(ts), id.NewULIDAt(ts)
		require.Equal(t, a[:10], b[:10])
		require.NotEqual(t, a, b)
	})
}

func TestNewShortID(t *testing.T) {
	t.Parallel()

	v := id.NewShortID()
	assert.Len(t, v, 16)
	require.True(t, crockford.MatchString(v), "invalid characters: %s", v)
}

func TestNewBatchID(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 10, 17, 9, 30, 15, 0, time.UTC)

	t.Run("timestamp prefix", func(t *testing.T) {
		t.Parallel()

		v := id.NewBatchID(started)
		prefix, suffix, ok := strings.Cut(v, "_")
		require.True(t, ok)
		require.Equal(t, "20261017093015", prefix)
		require.Len(t, suffix, 8)
		require.True(t, crockford.MatchString(suffix))
	})

	t.Run("same second stays unique", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{}, 500)
		for range 500 {
			v := id.NewBatchID(started)
			_, dup := seen[v]
			require.False(t, dup, "duplicate batch ID: %s", v)
			seen[v] = struct{}{}
		}
	})
}
