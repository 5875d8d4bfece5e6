package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/config"
	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
	"github.com/pwannenmacher/credvault/internal/repository/memory"
)

type testEnv struct {
	stores  *repository.Stores
	audit   *AuditService
	review  *ReviewService
	query   *QueryService
	authSvc *AuthService
	clock   *fakeClock
}

// fakeClock advances one second on every read so creation order is strict
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	stores := memory.NewStores()
	audit := NewAuditService(stores.Audit)
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	review := NewReviewService(stores.Submissions, audit)
	review.now = clock.Now

	query := NewQueryService(stores, audit, DefaultPortfolioTarget)
	query.now = clock.Now

	authSvc := NewAuthService(stores.Users, stores.Sessions, auth.NewService(&config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
	}), audit)

	return &testEnv{
		stores:  stores,
		audit:   audit,
		review:  review,
		query:   query,
		authSvc: authSvc,
		clock:   clock,
	}
}

// account creates a user for role and returns its identity
func (e *testEnv) account(t *testing.T, role models.Role, name string, profile *models.StudentProfile) models.Identity {
	t.Helper()
	user, err := e.authSvc.CreateAccount(context.Background(), AccountInput{
		Email:       fmt.Sprintf("%s@credvault.test", strings.ReplaceAll(strings.ToLower(name), " ", ".")),
		Password:    "123456",
		DisplayName: name,
		Role:        role,
		Profile:     profile,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) error = %v", name, err)
	}
	return user.Identity()
}

func (e *testEnv) submit(t *testing.T, student models.Identity, title string, docType models.DocumentType, priority models.Priority) *models.Submission {
	t.Helper()
	sub, err := e.review.Submit(context.Background(), student, SubmitInput{
		Title:        title,
		DocumentType: docType,
		Description:  "test document",
		FileRef:      "uploads/" + title + ".pdf",
		Priority:     priority,
	})
	if err != nil {
		t.Fatalf("Submit(%s) error = %v", title, err)
	}
	return sub
}

func (e *testEnv) approve(t *testing.T, reviewer models.Identity, id string) *models.Submission {
	t.Helper()
	sub, err := e.review.Approve(context.Background(), reviewer, id, nil)
	if err != nil {
		t.Fatalf("Approve(%s) error = %v", id, err)
	}
	return sub
}

func strPtr(s string) *string {
	return &s
}
