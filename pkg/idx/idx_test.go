package idx_test

import (
	"testing"
	"time"

	"todoapi/pkg/idx"

	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	prev := idx.New()
	for range 100 {
		next := idx.New()
		require.Less(t, prev.String(), next.String())
		prev = next
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("round-trips a generated id", func(t *testing.T) {
		id := idx.New()
		parsed, err := idx.Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})

	t.Run("rejects empty strings", func(t *testing.T) {
		_, err := idx.Parse("   ")
		require.ErrorIs(t, err, idx.ErrInvalid)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := idx.Parse("not-a-ulid")
		require.ErrorIs(t, err, idx.ErrInvalid)
	})
}

func TestTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	id := idx.NewAt(at)
	require.Equal(t, at.Truncate(time.Millisecond), id.Time())

	require.True(t, idx.Zero.Time().IsZero())
}
