package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Roles are a flat two-value enum.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MaxRefreshTokensPerUser bounds how many outstanding refresh tokens a user
// may hold. The oldest is evicted first when the bound is hit, so a user can
// stay signed in on at most this many devices.
const MaxRefreshTokensPerUser = 5

const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
	PasswordMinLen = 6
	FullNameMaxLen = 50
)

var (
	usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRE    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// User is an account record. PasswordHash is only populated on reads that
// need it (login, password change) and must never be serialized outward;
// external representations go through Safe.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Normalize trims whitespace and lowercases the email, mirroring what the
// persistence layer expects. Call before Validate.
func (u *User) Normalize() {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FullName = strings.TrimSpace(u.FullName)
}

// Validate returns one message per violated field constraint. An empty
// result means the user is well-formed.
func (u *User) Validate() []string {
	var errs []string

	switch {
	case u.Username == "":
		errs = append(errs, "Username is required")
	case len(u.Username) < UsernameMinLen:
		errs = append(errs, "Username must be at least 3 characters")
	case len(u.Username) > UsernameMaxLen:
		errs = append(errs, "Username must not exceed 20 characters")
	case !usernameRE.MatchString(u.Username):
		errs = append(errs, "Username may only contain letters, digits and underscores")
	}

	switch {
	case u.Email == "":
		errs = append(errs, "Email is required")
	case !emailRE.MatchString(u.Email):
		errs = append(errs, "Email is not valid")
	}

	// Counted in runes so multibyte names are not penalized.
	if utf8.RuneCountInString(u.FullName) > FullNameMaxLen {
		errs = append(errs, "Full name must not exceed 50 characters")
	}

	if u.Role != RoleUser && u.Role != RoleAdmin {
		errs = append(errs, "Role must be user or admin")
	}

	return errs
}

// ValidatePassword checks a plaintext password against the account policy.
// Separate from Validate because the domain model only ever sees the hash.
func ValidatePassword(password string) []string {
	if len(password) < PasswordMinLen {
		return []string{"Password must be at least 6 characters"}
	}
	return nil
}

// SafeUser is the externally visible user representation. It deliberately
// has no password or refresh-token fields.
type SafeUser struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName,omitempty"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	TodoCount *int       `json:"todoCount,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Safe strips credential material for external exposure.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
