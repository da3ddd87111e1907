package service

import (
	"errors"
	"fmt"
	"time"

	"todoapi/internal/domain"
	"todoapi/pkg/jwtx"
)

// TokenService signs and verifies the two JWT families. Access and refresh
// tokens can be signed with independent secrets; when RefreshSecret is empty
// the access secret covers both.
type TokenService struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (s *TokenService) refreshSecret() []byte {
	if len(s.RefreshSecret) > 0 {
		return s.RefreshSecret
	}
	return s.AccessSecret
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssueAccessToken signs a short-lived access token for the user.
func (s *TokenService) IssueAccessToken(u domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Username, u.Email, s.Issuer, s.Audience, s.accessTTL(), now)
	return jwtx.Sign(claims, s.AccessSecret)
}

// IssueRefreshToken signs a refresh token for the user.
func (s *TokenService) IssueRefreshToken(u domain.User, now time.Time) (string, error) {
	claims := jwtx.NewRefreshClaims(u.ID, s.Issuer, s.Audience, s.refreshTTL(), now)
	return jwtx.Sign(claims, s.refreshSecret())
}

// IssuePair signs a fresh access/refresh pair.
func (s *TokenService) IssuePair(u domain.User, now time.Time) (domain.TokenPair, error) {
	access, err := s.IssueAccessToken(u, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(u, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    ttlLabel(s.accessTTL()),
	}, nil
}

// VerifyAccess parses and validates an access token. A refresh token
// presented here fails with jwtx.ErrInvalid.
func (s *TokenService) VerifyAccess(raw string) (jwtx.Claims, error) {
	return s.verify(raw, s.AccessSecret, jwtx.UseAccess)
}

// VerifyRefresh parses and validates a refresh token. An access token
// presented here fails with jwtx.ErrInvalid.
func (s *TokenService) VerifyRefresh(raw string) (jwtx.Claims, error) {
	return s.verify(raw, s.refreshSecret(), jwtx.UseRefresh)
}

func (s *TokenService) verify(raw string, secret []byte, use string) (jwtx.Claims, error) {
	claims, err := jwtx.Parse(raw, secret)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if claims.TokenUse != use {
		return jwtx.Claims{}, jwtx.ErrInvalid
	}
	if err := errors.Join(
		claims.ValidateIssuer(s.Issuer),
		claims.ValidateAudience(s.Audience),
	); err != nil {
		return jwtx.Claims{}, jwtx.ErrInvalid
	}
	return claims, nil
}

// ttlLabel renders a duration the way clients expect it in expiresIn:
// "15m", "2h", "7d".
func ttlLabel(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
