package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"todoapi/internal/domain"
	"todoapi/internal/store"
	"todoapi/pkg/cryptox"
	"todoapi/pkg/idx"
	"todoapi/pkg/jwtx"
	"todoapi/pkg/slogx"
)

// AuthService implements the account and session lifecycle: registration,
// login, refresh rotation, logout and password changes.
type AuthService struct {
	Store      store.Store
	Tokens     *TokenService
	BcryptCost int
}

// Register creates a new account and signs it straight in.
func (s *AuthService) Register(ctx context.Context, username, email, password, fullName string) (domain.SafeUser, domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	// 1. Normalize and validate the prospective account
	u := domain.User{
		ID:       idx.NewAt(now).String(),
		Username: username,
		Email:    email,
		FullName: fullName,
		Role:     domain.RoleUser,
		IsActive: true,
	}
	u.Normalize()

	fields := u.Validate()
	fields = append(fields, domain.ValidatePassword(password)...)
	if len(fields) > 0 {
		return domain.SafeUser{}, domain.TokenPair{}, &ValidationError{Fields: fields}
	}

	// 2. Hash the password before anything touches the store
	hash, err := cryptox.HashPassword(password, s.BcryptCost)
	if err != nil {
		return domain.SafeUser{}, domain.TokenPair{}, err
	}
	u.PasswordHash = hash
	u.CreatedAt = now
	u.UpdatedAt = now

	// 3. Persist; uniqueness violations surface as store.ErrAlreadyExists
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return domain.SafeUser{}, domain.TokenPair{}, err
	}

	// 4. Issue the first session and stamp last_login; registering counts
	// as the account's first sign-in
	pair, err := s.issueSession(ctx, u, now)
	if err != nil {
		return domain.SafeUser{}, domain.TokenPair{}, err
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
		l.Error("failed to stamp last login", slog.Any("error", err), slog.String("user_id", u.ID))
	}
	u.LastLogin = &now

	l.Info("user registered",
		slog.String("user_id", u.ID),
		slog.String("username", u.Username),
	)
	return u.Safe(), pair, nil
}

// Login verifies credentials against a username or email and starts a new
// session. Unknown identifiers, wrong passwords and disabled accounts all
// come back as ErrInvalidCredentials so callers cannot tell which accounts
// exist or are active.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (domain.SafeUser, domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	// 1. Resolve the account
	u, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SafeUser{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.SafeUser{}, domain.TokenPair{}, err
	}

	// 2. Check the password
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("login failed", slog.String("user_id", u.ID))
		return domain.SafeUser{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	// 3. Disabled accounts cannot sign in, but the answer stays generic
	if !u.IsActive {
		l.Info("login failed", slog.String("user_id", u.ID))
		return domain.SafeUser{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	// 4. Issue the session and stamp last_login
	pair, err := s.issueSession(ctx, u, now)
	if err != nil {
		return domain.SafeUser{}, domain.TokenPair{}, err
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
		l.Error("failed to stamp last login", slog.Any("error", err), slog.String("user_id", u.ID))
	}
	u.LastLogin = &now

	l.Info("user logged in", slog.String("user_id", u.ID))
	return u.Safe(), pair, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the old
// token out. A token can be exchanged at most once: a replayed token fails
// with ErrInvalidRefresh even if its signature is still valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	// 1. Verify signature, expiry and token_use before touching the store
	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	fp := cryptox.FingerprintToken(refreshToken)

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 2. Rotation guard: delete-if-present on the stored fingerprint.
		// Of two concurrent exchanges of the same token, exactly one
		// observes the delete; the other fails here.
		ok, err := tx.RefreshTokens().DeleteRefreshToken(ctx, claims.Subject, fp)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidRefresh
		}

		// 3. The subject must still exist and be active
		u, err := tx.Users().GetUserByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if !u.IsActive {
			return ErrInvalidRefresh
		}

		// 4. Issue and persist the replacement pair
		pair, err = s.Tokens.IssuePair(u, now)
		if err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.NewAt(now).String(),
			UserID:    u.ID,
			TokenHash: cryptox.FingerprintToken(pair.RefreshToken),
			ExpiresAt: now.Add(s.Tokens.refreshTTL()),
			CreatedAt: now,
		})
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	l.Debug("refresh token rotated", slog.String("user_id", claims.Subject))
	return pair, nil
}

// Logout ends the session the given refresh token belongs to, or every
// session when no token is supplied. Idempotent: an already-rotated or
// unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return s.Store.RefreshTokens().DeleteAllUserRefreshTokens(ctx, userID)
	}
	fp := cryptox.FingerprintToken(refreshToken)
	_, err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, userID, fp)
	return err
}

// ChangePassword re-verifies the current password, swaps the hash and ends
// every outstanding session so stolen refresh tokens die with the old
// password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	// 1. Policy check on the replacement
	if fields := domain.ValidatePassword(newPassword); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	// 2. Re-verify the current password
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := cryptox.VerifyPassword(currentPassword, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	// 3. Hash and swap
	hash, err := cryptox.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return err
	}

	// 4. Atomically update the hash and drop every session
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return tx.RefreshTokens().DeleteAllUserRefreshTokens(ctx, userID)
	})
	if err != nil {
		return err
	}

	l.Info("password changed", slog.String("user_id", userID))
	return nil
}

// UpdateProfile changes the account's username, email and full name.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, username, email, fullName string) (domain.SafeUser, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.SafeUser{}, err
	}

	if username != "" {
		u.Username = username
	}
	if email != "" {
		u.Email = email
	}
	if fullName != "" {
		u.FullName = fullName
	}
	u.Normalize()

	if fields := u.Validate(); len(fields) > 0 {
		return domain.SafeUser{}, &ValidationError{Fields: fields}
	}

	if err := s.Store.Users().UpdateUser(ctx, u); err != nil {
		return domain.SafeUser{}, err
	}
	return u.Safe(), nil
}

// Profile returns the account's external view with its todo count attached.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.SafeUser, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.SafeUser{}, err
	}

	n, err := s.Store.Todos().CountUserTodos(ctx, userID)
	if err != nil {
		return domain.SafeUser{}, err
	}

	safe := u.Safe()
	safe.TodoCount = &n
	return safe, nil
}

// GetUser loads an account by id. Middleware uses this to resolve the
// authenticated principal on each request.
func (s *AuthService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// issueSession signs a fresh pair and persists the refresh fingerprint.
func (s *AuthService) issueSession(ctx context.Context, u domain.User, now time.Time) (domain.TokenPair, error) {
	pair, err := s.Tokens.IssuePair(u, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = s.Store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(pair.RefreshToken),
		ExpiresAt: now.Add(s.Tokens.refreshTTL()),
		CreatedAt: now,
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}
