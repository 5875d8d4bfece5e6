package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/config"
	"github.com/pwannenmacher/credvault/internal/middleware"
	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
	"github.com/pwannenmacher/credvault/internal/repository/memory"
	"github.com/pwannenmacher/credvault/internal/service"
)

type testServer struct {
	handler http.Handler
	stores  *repository.Stores
	authSvc *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	stores := memory.NewStores()
	audit := service.NewAuditService(stores.Audit)
	review := service.NewReviewService(stores.Submissions, audit)
	query := service.NewQueryService(stores, audit, service.DefaultPortfolioTarget)
	authSvc := service.NewAuthService(stores.Users, stores.Sessions, auth.NewService(&config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
	}), audit)

	router := &Router{
		Auth:       NewAuthHandler(authSvc),
		Submission: NewSubmissionHandler(review, query),
		Student:    NewStudentHandler(query),
		Recruiter:  NewRecruiterHandler(query),
		Admin:      NewAdminHandler(query, audit),
		Health:     NewHealthHandler(nil, config.StoreDriverMemory, "test"),

		AuthMw: middleware.NewAuthMiddleware(authSvc),
		CORS: middleware.NewCORSMiddleware(&config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "DELETE"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}),
		RateLimiter: middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false}),
	}

	return &testServer{handler: router.Handler(), stores: stores, authSvc: authSvc}
}

// login creates an account for role and returns a bearer token and the identity
func (s *testServer) login(t *testing.T, role models.Role, name string) (string, models.Identity) {
	t.Helper()

	email := name + "@credvault.test"
	if _, err := s.authSvc.CreateAccount(context.Background(), service.AccountInput{
		Email:       email,
		Password:    "123456",
		DisplayName: name,
		Role:        role,
	}); err != nil {
		t.Fatalf("CreateAccount(%s) error = %v", name, err)
	}

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: "123456", Role: string(role)})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", name, rec.Code, rec.Body)
	}

	var result service.LoginResult
	decode(t, rec, &result)
	return result.Token, result.Identity
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// submit posts a submission as the student behind token and returns it
func (s *testServer) submit(t *testing.T, token, title, docType string) models.Submission {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/submissions", token, SubmitRequest{
		Title:        title,
		DocumentType: docType,
		FileRef:      "uploads/" + title + ".pdf",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit %s: status %d, body %s", title, rec.Code, rec.Body)
	}

	var sub models.Submission
	decode(t, rec, &sub)
	return sub
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, expected %d (body %s)", rec.Code, want, rec.Body)
	}
}
