package service_test

import (
	"testing"
	"time"

	"todoapi/internal/domain"
	"todoapi/internal/service"
	"todoapi/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

func testTokenService() *service.TokenService {
	return &service.TokenService{
		AccessSecret: []byte("access-secret"),
		Issuer:       "todo-api",
		Audience:     "todo-app",
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   7 * 24 * time.Hour,
	}
}

func TestTokenServicePair(t *testing.T) {
	t.Parallel()

	svc := testTokenService()
	u := domain.User{ID: "u1", Username: "alice", Email: "alice@example.com"}
	now := time.Now()

	pair, err := svc.IssuePair(u, now)
	require.NoError(t, err)
	require.Equal(t, "15m", pair.ExpiresIn)

	access, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u1", access.Subject)
	require.Equal(t, "alice", access.Username)
	require.Equal(t, jwtx.UseAccess, access.TokenUse)

	refresh, err := svc.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.UseRefresh, refresh.TokenUse)
}

func TestTokenServiceRejectsCrossUse(t *testing.T) {
	t.Parallel()

	svc := testTokenService()
	u := domain.User{ID: "u1", Username: "alice"}
	pair, err := svc.IssuePair(u, time.Now())
	require.NoError(t, err)

	// A refresh token is never a valid access token, and vice versa.
	_, err = svc.VerifyAccess(pair.RefreshToken)
	require.ErrorIs(t, err, jwtx.ErrInvalid)

	_, err = svc.VerifyRefresh(pair.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestTokenServiceRefreshSecretFallback(t *testing.T) {
	t.Parallel()

	u := domain.User{ID: "u1", Username: "alice"}

	t.Run("separate refresh secret isolates families", func(t *testing.T) {
		svc := testTokenService()
		svc.RefreshSecret = []byte("refresh-secret")

		pair, err := svc.IssuePair(u, time.Now())
		require.NoError(t, err)

		_, err = svc.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)

		// A verifier without the refresh secret cannot accept it.
		other := testTokenService()
		_, err = other.VerifyRefresh(pair.RefreshToken)
		require.ErrorIs(t, err, jwtx.ErrInvalid)
	})

	t.Run("empty refresh secret falls back to the access secret", func(t *testing.T) {
		svc := testTokenService()
		pair, err := svc.IssuePair(u, time.Now())
		require.NoError(t, err)

		_, err = svc.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)
	})
}

func TestTokenServiceIssuerAudience(t *testing.T) {
	t.Parallel()

	svc := testTokenService()
	u := domain.User{ID: "u1"}
	pair, err := svc.IssuePair(u, time.Now())
	require.NoError(t, err)

	other := testTokenService()
	other.Issuer = "someone-else"
	_, err = other.VerifyAccess(pair.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrInvalid)

	other = testTokenService()
	other.Audience = "another-app"
	_, err = other.VerifyAccess(pair.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestTokenServiceExpiry(t *testing.T) {
	t.Parallel()

	svc := testTokenService()
	u := domain.User{ID: "u1"}

	// Issued far enough in the past that the access TTL has elapsed.
	access, err := svc.IssueAccessToken(u, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = svc.VerifyAccess(access)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}
