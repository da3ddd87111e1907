package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"todoapi/internal/domain"
	"todoapi/internal/service"
	"todoapi/pkg/httpx"
	"todoapi/pkg/jwtx"
	"todoapi/pkg/slogx"
)

type ctxKey string

const (
	ctxKeyUser  ctxKey = "user"
	ctxKeyToken ctxKey = "token"
)

// UserFromContext returns the authenticated principal, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(domain.User)
	return u, ok
}

// TokenFromContext returns the raw bearer token the request authenticated
// with.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyToken).(string); ok {
		return v
	}
	return ""
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

// Authenticate verifies the bearer access token, resolves the account and
// injects it into the request context. Expired tokens answer with code
// TOKEN_EXPIRED so clients know to refresh rather than re-login.
func Authenticate(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := bearerToken(r)
			if raw == "" {
				httpx.ErrorCode(w, http.StatusUnauthorized, "Access token is required", CodeInvalidToken)
				return
			}

			claims, err := auth.Tokens.VerifyAccess(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrExpired) {
					httpx.ErrorCode(w, http.StatusUnauthorized, "Access token has expired", CodeTokenExpired)
					return
				}
				log.Warn("jwt verify failed", "err", err)
				httpx.ErrorCode(w, http.StatusUnauthorized, "Invalid access token", CodeInvalidToken)
				return
			}

			// The subject must still exist and be active; deleted or
			// disabled accounts fail even with a valid signature.
			u, err := auth.GetUser(ctx, claims.Subject)
			if err != nil || !u.IsActive {
				httpx.ErrorCode(w, http.StatusUnauthorized, "Invalid access token", CodeInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithUser(ctx, u, raw)))
		})
	}
}

// RequireRole gates a route on an allow-list of roles. Must run inside
// Authenticate.
func RequireRole(roles ...string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				httpx.ErrorCode(w, http.StatusUnauthorized, "Access token is required", CodeInvalidToken)
				return
			}
			if !slices.Contains(roles, u.Role) {
				httpx.Error(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuthenticate resolves the principal when a valid bearer token is
// present but lets anonymous and invalid-token requests through without one.
// Handlers behind it branch on UserFromContext.
func OptionalAuthenticate(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.Tokens.VerifyAccess(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			u, err := auth.GetUser(ctx, claims.Subject)
			if err != nil || !u.IsActive {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithUser(ctx, u, raw)))
		})
	}
}

func contextWithUser(ctx context.Context, u domain.User, raw string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUser, u)
	ctx = context.WithValue(ctx, ctxKeyToken, raw)
	ctx = context.WithValue(ctx, httpx.CtxKeyUserID, u.ID)
	return ctx
}
