package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/service"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "token"
)

// Authenticator resolves a bearer token to the identity of a live session
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

// AuthMiddleware validates bearer tokens against live sessions
type AuthMiddleware struct {
	sessions Authenticator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(sessions Authenticator) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate validates the token and places the caller's identity in the request context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Missing or malformed authorization header")
			return
		}

		identity, err := m.sessions.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				respondWithError(w, http.StatusUnauthorized, "Token has expired")
			case errors.Is(err, service.ErrSessionNotFound):
				respondWithError(w, http.StatusUnauthorized, "Token has been invalidated")
			case errors.Is(err, auth.ErrInvalidToken):
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("Failed to authenticate request", "error", err)
				respondWithError(w, http.StatusInternalServerError, "Failed to authenticate request")
			}
			return
		}

		noteUser(r.Context(), identity.ID)
		ctx := context.WithValue(r.Context(), identityKey, identity)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// GetIdentity retrieves the authenticated identity from the request context
func GetIdentity(r *http.Request) (models.Identity, bool) {
	identity, ok := r.Context().Value(identityKey).(models.Identity)
	return identity, ok
}

// GetToken retrieves the raw bearer token of an authenticated request
func GetToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenKey).(string)
	return token, ok
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
