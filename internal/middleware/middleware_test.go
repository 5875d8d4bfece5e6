package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/config"
	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/service"
)

type stubAuthenticator struct {
	identity models.Identity
	err      error
}

func (s stubAuthenticator) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	if token != "good" && s.err == nil {
		return models.Identity{}, auth.ErrInvalidToken
	}
	return s.identity, s.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAuthenticate(t *testing.T) {
	faculty := models.Identity{ID: "u1", Role: models.RoleFaculty}

	tests := []struct {
		name   string
		header string
		stub   stubAuthenticator
		want   int
	}{
		{"valid token", "Bearer good", stubAuthenticator{identity: faculty}, http.StatusOK},
		{"lowercase scheme", "bearer good", stubAuthenticator{identity: faculty}, http.StatusOK},
		{"missing header", "", stubAuthenticator{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic good", stubAuthenticator{}, http.StatusUnauthorized},
		{"invalid token", "Bearer bad", stubAuthenticator{}, http.StatusUnauthorized},
		{"expired token", "Bearer good", stubAuthenticator{err: auth.ErrExpiredToken}, http.StatusUnauthorized},
		{"session gone", "Bearer good", stubAuthenticator{err: service.ErrSessionNotFound}, http.StatusUnauthorized},
		{"store failure", "Bearer good", stubAuthenticator{err: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = GetIdentity(r)
				token, _ := GetToken(r)
				if token != "good" {
					t.Errorf("token in context = %q", token)
				}
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			NewAuthMiddleware(tt.stub).Authenticate(next).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, expected %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && got != faculty {
				t.Errorf("identity = %+v, expected %+v", got, faculty)
			}
		})
	}
}

func TestRequireAction(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.Identity
		action   auth.Action
		want     int
	}{
		{"unauthenticated", nil, auth.ActionApprove, http.StatusUnauthorized},
		{"faculty approves", &models.Identity{Role: models.RoleFaculty}, auth.ActionApprove, http.StatusOK},
		{"student approves", &models.Identity{Role: models.RoleStudent}, auth.ActionApprove, http.StatusForbidden},
		{"admin reads stats", &models.Identity{Role: models.RoleAdmin}, auth.ActionViewStats, http.StatusOK},
		{"recruiter reads stats", &models.Identity{Role: models.RoleRecruiter}, auth.ActionViewStats, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			RequireAction(tt.action)(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, expected %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:5000", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetIP(req); got != tt.want {
				t.Errorf("GetIP() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 2, Duration: time.Minute})
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	handler := rl.Limit(okHandler)

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := call("192.0.2.1"); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := call("192.0.2.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request: status %d, expected 429", code)
	}
	if code := call("192.0.2.2"); code != http.StatusOK {
		t.Errorf("other client: status %d, expected 200", code)
	}

	now = now.Add(time.Minute)
	if code := call("192.0.2.1"); code != http.StatusOK {
		t.Errorf("after window: status %d, expected 200", code)
	}

	now = now.Add(10 * time.Minute)
	rl.evictIdle(3 * time.Minute)
	if len(rl.visitors) != 0 {
		t.Errorf("visitors = %d after eviction, expected 0", len(rl.visitors))
	}
}

func TestCORS(t *testing.T) {
	cors := NewCORSMiddleware(&config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	cors.Handler(okHandler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("Allow-Methods = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials header missing")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	cors.Handler(okHandler).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("foreign origin must not be allowed")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestLoggingMiddlewareLevels(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	authed := NewAuthMiddleware(stubAuthenticator{identity: models.Identity{ID: "u42"}})
	handler := LoggingMiddleware(authed.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusConflict)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/1/approve", nil)
	req.Header.Set("Authorization", "Bearer good")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{`"level":"WARN"`, `"status":409`, `"user_id":"u42"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %s missing %s", line, want)
		}
	}
	if strings.Contains(line, "request_body") {
		t.Error("bodies must only be logged at debug level")
	}
}

func TestSecurityHeaders(t *testing.T) {
	for _, path := range []string{"/api/v1/review/queue", "/swagger/index.html"} {
		rec := httptest.NewRecorder()
		SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("%s: X-Frame-Options missing", path)
		}
		csp := rec.Header().Get("Content-Security-Policy")
		if strings.HasPrefix(path, "/swagger/") != strings.Contains(csp, "unsafe-inline") {
			t.Errorf("%s: unexpected CSP %q", path, csp)
		}
	}
}
