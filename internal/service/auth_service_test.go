package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
)

func TestLoginAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	student := env.account(t, models.RoleStudent, "student1", nil)
	ctx := context.Background()

	result, err := env.authSvc.Login(ctx, "student1@credvault.test", "123456", models.RoleStudent, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}
	if result.Identity != student {
		t.Errorf("Identity = %+v, expected %+v", result.Identity, student)
	}

	identity, err := env.authSvc.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if identity.ID != student.ID || identity.Role != models.RoleStudent {
		t.Errorf("unexpected identity %+v", identity)
	}

	user, _ := env.stores.Users.GetByID(ctx, student.ID)
	if user.LastLoginAt == nil {
		t.Error("LastLoginAt not updated")
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, models.RoleFaculty, "faculty1", nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		role     models.Role
	}{
		{"wrong password", "faculty1@credvault.test", "nope", models.RoleFaculty},
		{"unknown email", "ghost@credvault.test", "123456", models.RoleFaculty},
		{"role not held", "faculty1@credvault.test", "123456", models.RoleAdmin},
		{"invalid role", "faculty1@credvault.test", "123456", "dean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.authSvc.Login(ctx, tt.email, tt.password, tt.role, "", "")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, expected ErrInvalidCredentials", err)
			}
		})
	}

	logs, _ := env.audit.List(ctx, 10, 0)
	failed := 0
	for _, l := range logs {
		if l.Action == AuditLoginFailed {
			failed++
		}
	}
	if failed != len(tests) {
		t.Errorf("expected %d failed-login audit entries, got %d", len(tests), failed)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, models.RoleAdmin, "admin1", nil)
	ctx := context.Background()

	result, err := env.authSvc.Login(ctx, "admin1@credvault.test", "123456", models.RoleAdmin, "", "")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := env.authSvc.Logout(ctx, result.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, err := env.authSvc.Authenticate(ctx, result.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Authenticate() after logout error = %v, expected ErrSessionNotFound", err)
	}

	if err := env.authSvc.Logout(ctx, "garbage"); err == nil {
		t.Error("Logout(garbage) should fail")
	}
}

func TestCreateAccountValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var vErr *ValidationError
	if _, err := env.authSvc.CreateAccount(ctx, AccountInput{Email: "a@b.c", Password: "123456", Role: "dean"}); !errors.As(err, &vErr) {
		t.Errorf("invalid role error = %v", err)
	}
	if _, err := env.authSvc.CreateAccount(ctx, AccountInput{Email: "a@b.c", Password: "123", Role: models.RoleStudent}); !errors.As(err, &vErr) {
		t.Errorf("short password error = %v", err)
	}

	env.account(t, models.RoleStudent, "dup", nil)
	_, err := env.authSvc.CreateAccount(ctx, AccountInput{Email: "DUP@credvault.test", Password: "123456", Role: models.RoleStudent})
	if !errors.Is(err, repository.ErrUserExists) {
		t.Errorf("duplicate account error = %v, expected ErrUserExists", err)
	}

	student := env.account(t, models.RoleStudent, "profiled", nil)
	profile, err := env.stores.Users.GetStudentProfile(ctx, student.ID)
	if err != nil {
		t.Fatalf("student profile not created: %v", err)
	}
	if profile.Name != "profiled" {
		t.Errorf("profile name = %q, expected display name", profile.Name)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_ = env.stores.Sessions.Create(ctx, &models.Session{ID: "s1", UserID: "u1", JTI: "old", ExpiresAt: time.Now().Add(-time.Hour)})
	_ = env.stores.Sessions.Create(ctx, &models.Session{ID: "s2", UserID: "u1", JTI: "new", ExpiresAt: time.Now().Add(time.Hour)})

	removed, err := env.authSvc.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, expected 1", removed)
	}
}
