package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired reports a token whose signature is fine but whose exp (or
	// nbf) makes it unusable right now. Clients seeing this should attempt
	// a refresh rather than re-authenticating.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalid reports a malformed token, a bad signature, or claims
	// that fail structural validation.
	ErrInvalid = errors.New("jwtx: token invalid")
)

// Sign serializes the claims into a compact JWS signed with HMAC-SHA256.
func Sign(claims Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse verifies the signature and registered-claim validity of a compact
// JWS and returns its claims. Expiry is reported as ErrExpired so callers
// can distinguish it from tampering; every other failure is ErrInvalid.
func Parse(raw string, secret []byte) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}

	return claims, nil
}
