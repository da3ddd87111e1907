package http

import (
	"errors"
	"net/http"

	"todoapi/internal/service"
	"todoapi/internal/store"
	"todoapi/pkg/httpx"
	"todoapi/pkg/slogx"
)

// Machine-readable error codes clients branch on.
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeInvalidToken = "INVALID_TOKEN"
)

// respondServiceError maps service and store errors onto the wire envelope.
// Anything unmapped becomes a generic 500 so internals never leak to
// clients.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		httpx.ValidationFailed(w, "Validation failed", ve.Fields)
		return
	}

	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		httpx.Error(w, http.StatusBadRequest, "Username or email already exists")
	case errors.Is(err, store.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.ErrorCode(w, http.StatusUnauthorized, "Invalid or expired refresh token", CodeInvalidToken)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err, "path", r.URL.Path)
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
