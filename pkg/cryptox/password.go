package cryptox

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost factor used for new password hashes.
// Raising it slows both hashing and verification, so changes should be
// paired with a load check on the login path.
const DefaultCost = 12

var ErrMismatch = errors.New("cryptox: password does not match")

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// A cost below bcrypt.MinCost falls back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored bcrypt hash.
// Returns ErrMismatch when the password is wrong; other errors indicate a
// malformed hash.
func VerifyPassword(password, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
