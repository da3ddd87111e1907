package domain

import "time"

// TokenPair is what every successful authentication returns: a short-lived
// access token, the refresh token that can be exchanged for the next pair,
// and the access-token TTL label clients use to schedule refreshes.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// RefreshToken is the stored record of an outstanding refresh token. Only
// the SHA-256 fingerprint of the token string is persisted; a refresh token
// is accepted for exchange only while its record exists and is unexpired.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
