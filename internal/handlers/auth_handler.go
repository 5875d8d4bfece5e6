package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/middleware"
	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/service"
	"github.com/pwannenmacher/credvault/pkg/validator"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=student faculty recruiter admin"`
}

// Login handles user login
// @Summary User login
// @Description Authenticate with email, password and the role to act as
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.LoginResult "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} ErrorResponse "Account inactive"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(
		r.Context(),
		validator.SanitizeEmail(req.Email),
		req.Password,
		models.Role(req.Role),
		middleware.GetIP(r),
		r.UserAgent(),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondWithError(w, http.StatusUnauthorized, "Invalid email, password or role")
		case errors.Is(err, service.ErrUserInactive):
			respondWithError(w, http.StatusForbidden, "Account is inactive")
		default:
			slog.Error("Login failed", "error", err)
			respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Logout handles user logout
// @Summary User logout
// @Description End the session behind the bearer token. Expired tokens are accepted.
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "Logout successful"
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		slog.Error("Logout failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the identity of the authenticated caller
// @Summary Current identity
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Identity
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, identity)
}

// caller returns the authenticated identity or writes a 401
func caller(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
	}
	return identity, ok
}
