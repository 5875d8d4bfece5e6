package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
	"github.com/pwannenmacher/credvault/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrSessionNotFound    = errors.New("session not found or expired")
)

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Identity  models.Identity `json:"identity"`
}

// AccountInput describes a new account
type AccountInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        models.Role
	// Profile is stored for student accounts only
	Profile *models.StudentProfile
}

// AuthService handles login sessions and accounts
type AuthService struct {
	userRepo    repository.UserStore
	sessionRepo repository.SessionStore
	provider    *auth.Provider
	authSvc     *auth.Service
	audit       *AuditService
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo repository.UserStore,
	sessionRepo repository.SessionStore,
	authSvc *auth.Service,
	audit *AuditService,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		provider:    auth.NewProvider(userRepo, authSvc),
		authSvc:     authSvc,
		audit:       audit,
	}
}

// CreateAccount registers a user holding exactly one role
func (s *AuthService) CreateAccount(ctx context.Context, input AccountInput) (*models.User, error) {
	email := validator.SanitizeEmail(input.Email)
	if err := validator.ValidateEmail(email); err != nil {
		return nil, invalid("email", err.Error())
	}
	if !input.Role.Valid() {
		return nil, invalid("role", fmt.Sprintf("unknown role %q", input.Role))
	}
	if err := validator.ValidatePassword(input.Password); err != nil {
		return nil, invalid("password", err.Error())
	}

	passwordHash, err := s.authSvc.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         input.Role,
		IsActive:     true,
	}
	if user.DisplayName == "" {
		user.DisplayName = email
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if input.Role == models.RoleStudent {
		profile := models.StudentProfile{Name: user.DisplayName}
		if input.Profile != nil {
			profile = *input.Profile
			if profile.Name == "" {
				profile.Name = user.DisplayName
			}
		}
		profile.UserID = user.ID
		if err := s.userRepo.UpsertStudentProfile(ctx, &profile); err != nil {
			return nil, fmt.Errorf("failed to create student profile: %w", err)
		}
	}

	slog.Info("Account created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login authenticates the credentials for role and opens a session
func (s *AuthService) Login(ctx context.Context, email, password string, role models.Role, ipAddress, userAgent string) (*LoginResult, error) {
	identity, err := s.provider.Authenticate(ctx, email, password, role)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAuthFailed):
			slog.Warn("Login failed", "email", email, "role", role)
			s.audit.Log(ctx, "", AuditLoginFailed, ResourceSession, fmt.Sprintf("Failed login for %s as %s", email, role))
			return nil, ErrInvalidCredentials
		case errors.Is(err, auth.ErrUserInactive):
			return nil, ErrUserInactive
		default:
			return nil, err
		}
	}

	token, jti, err := s.authSvc.GenerateToken(identity)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		ID:             uuid.NewString(),
		UserID:         identity.ID,
		JTI:            jti,
		ExpiresAt:      now.Add(s.authSvc.Expiration()),
		LastActivityAt: now,
		CreatedAt:      now,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, identity.ID); err != nil {
		slog.Error("Failed to update last login", "user_id", identity.ID, "error", err)
	}

	slog.Info("User logged in", "user_id", identity.ID, "role", identity.Role)
	s.audit.Log(ctx, identity.ID, AuditLogin, ResourceSession, fmt.Sprintf("Logged in as %s", identity.Role))

	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, Identity: identity}, nil
}

// Logout destroys the session behind token. Expired tokens are accepted.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.authSvc.ValidateToken(token)
	var jti, userID string
	switch {
	case err == nil:
		jti, userID = claims.ID, claims.UserID
	case errors.Is(err, auth.ErrExpiredToken):
		if jti, err = s.authSvc.ExtractJTI(token); err != nil {
			return auth.ErrInvalidToken
		}
	default:
		return auth.ErrInvalidToken
	}

	if err := s.sessionRepo.DeleteByJTI(ctx, jti); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if userID != "" {
		s.audit.Log(ctx, userID, AuditLogout, ResourceSession, "Logged out")
	}
	return nil
}

// Authenticate validates a bearer token and its live session, returning the session identity
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	claims, err := s.authSvc.ValidateToken(token)
	if err != nil {
		return models.Identity{}, err
	}

	session, err := s.sessionRepo.GetByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Identity{}, ErrSessionNotFound
		}
		return models.Identity{}, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != claims.UserID {
		return models.Identity{}, ErrSessionNotFound
	}

	if err := s.sessionRepo.UpdateLastActivity(ctx, session.ID); err != nil {
		slog.Warn("Failed to update session activity", "session_id", session.ID, "error", err)
	}

	return claims.Identity(), nil
}

// InvalidateAllUserSessions logs a user out everywhere
func (s *AuthService) InvalidateAllUserSessions(ctx context.Context, userID string) error {
	return s.sessionRepo.DeleteAllUserSessions(ctx, userID)
}

// CleanupExpiredSessions removes expired sessions and reports how many were deleted
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.sessionRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("Expired sessions removed", "count", removed)
	}
	return removed, nil
}
