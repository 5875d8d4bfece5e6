package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
)

var (
	ErrAuthFailed   = errors.New("invalid credentials")
	ErrUserInactive = errors.New("user account is inactive")
)

// UserLookup finds accounts by email
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Provider authenticates credentials and produces the session identity
type Provider struct {
	users UserLookup
	svc   *Service
}

// NewProvider creates a new auth provider
func NewProvider(users UserLookup, svc *Service) *Provider {
	return &Provider{users: users, svc: svc}
}

// Authenticate checks the credentials and that the account holds the requested role
func (p *Provider) Authenticate(ctx context.Context, email, password string, role models.Role) (models.Identity, error) {
	if !role.Valid() {
		return models.Identity{}, ErrAuthFailed
	}

	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Identity{}, ErrAuthFailed
		}
		return models.Identity{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := p.svc.VerifyPassword(user.PasswordHash, password); err != nil {
		return models.Identity{}, ErrAuthFailed
	}

	if !user.IsActive {
		return models.Identity{}, ErrUserInactive
	}

	// Signing in under a role the account does not hold is indistinguishable from bad credentials
	if user.Role != role {
		return models.Identity{}, ErrAuthFailed
	}

	return user.Identity(), nil
}
