package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token use discriminators. Embedded in every token so an access token can
// never be replayed against the refresh endpoint and vice versa.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// Default token TTLs. Short-lived access tokens limit the damage of a leaked
// bearer credential; the refresh TTL also bounds how long a stored refresh
// record stays live server-side.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the token claims shared by access and refresh tokens. Access
// tokens additionally carry the username and email so protected handlers can
// log and display identity without a user lookup.
type Claims struct {
	jwt.RegisteredClaims

	// TokenUse discriminates access from refresh tokens.
	TokenUse string `json:"token_use"`

	// Username of the subject. Access tokens only.
	Username string `json:"username,omitempty"`

	// Email of the subject. Access tokens only.
	Email string `json:"email,omitempty"`
}

// NewAccessClaims builds claims for a short-lived access token.
func NewAccessClaims(
	subject, username, email string,
	issuer, audience string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, audience, ttl, now),
		TokenUse:         UseAccess,
		Username:         username,
		Email:            email,
	}
}

// NewRefreshClaims builds claims for a refresh token. Only the subject is
// carried; everything else is re-resolved at exchange time.
func NewRefreshClaims(subject, issuer, audience string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, audience, ttl, now),
		TokenUse:         UseRefresh,
	}
}

func registered(subject, issuer, audience string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// ValidateIssuer checks the issuer claim against the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrInvalid
	}
	return nil
}

// ValidateAudience checks that the expected audience is present.
func (c *Claims) ValidateAudience(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if !slices.Contains(c.Audience, expected) {
		return ErrInvalid
	}
	return nil
}
