package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"todoapi/internal/domain"
	"todoapi/internal/service"
	"todoapi/internal/store"
	"todoapi/pkg/httpx"
)

// AuthHandler exposes the account and session lifecycle endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type sessionResponse struct {
	User   domain.SafeUser  `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// HandleRegister creates an account and signs it straight in.
//
// POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, tokens, err := h.Auth.Register(r.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.OK(w, http.StatusCreated, "User registered successfully", sessionResponse{User: user, Tokens: tokens})
}

type loginRequest struct {
	// Identifier is a username or email; Username and Email are accepted
	// as aliases for older clients.
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (req *loginRequest) identifier() string {
	switch {
	case req.Identifier != "":
		return req.Identifier
	case req.Username != "":
		return req.Username
	default:
		return req.Email
	}
}

// HandleLogin verifies credentials and starts a session.
//
// POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := req.identifier()
	if id == "" || req.Password == "" {
		httpx.ValidationFailed(w, "Validation failed", []string{"Username or email and password are required"})
		return
	}

	user, tokens, err := h.Auth.Login(r.Context(), id, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.OK(w, http.StatusOK, "Login successful", sessionResponse{User: user, Tokens: tokens})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Tokens domain.TokenPair `json:"tokens"`
}

// HandleRefresh exchanges a refresh token for a rotated pair.
//
// POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httpx.ValidationFailed(w, "Validation failed", []string{"Refresh token is required"})
		return
	}

	tokens, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.OK(w, http.StatusOK, "Token refreshed successfully", refreshResponse{Tokens: tokens})
}

// HandleLogout ends the session the supplied refresh token belongs to, or
// every session when the body carries no token.
//
// POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req refreshRequest
	// Body is optional; logout without a refresh token is still a success.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.Auth.Logout(r.Context(), u.ID, req.RefreshToken); err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Logged out successfully", nil)
}

// HandleMe returns the authenticated account with its todo count.
//
// GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	profile, err := h.Auth.Profile(r.Context(), u.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", profile)
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// HandleUpdateProfile changes the account's username, email or full name.
//
// PUT /auth/profile
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.Auth.UpdateProfile(r.Context(), u.ID, req.Username, req.Email, req.FullName)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			httpx.Error(w, http.StatusBadRequest, "Username or email already taken")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Profile updated successfully", profile)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword swaps the password and ends every session.
//
// PUT /auth/change-password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.ValidationFailed(w, "Validation failed", []string{"Current password and new password are required"})
		return
	}

	err := h.Auth.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		// Wrong current password is the caller's mistake, not a failed
		// authentication of the request itself.
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.Error(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Password changed successfully. Please log in again.", nil)
}
