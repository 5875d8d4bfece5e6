package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pwannenmacher/credvault/internal/models"
)

func TestLoginAndMe(t *testing.T) {
	srv := newTestServer(t)
	token, identity := srv.login(t, models.RoleFaculty, "faculty1")

	rec := srv.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	expectStatus(t, rec, http.StatusOK)

	var me models.Identity
	decode(t, rec, &me)
	if me != identity {
		t.Errorf("me = %+v, expected %+v", me, identity)
	}
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)
	srv.login(t, models.RoleStudent, "student1")

	tests := []struct {
		name string
		body LoginRequest
		want int
	}{
		{"unknown role", LoginRequest{Email: "student1@credvault.test", Password: "123456", Role: "dean"}, http.StatusBadRequest},
		{"malformed email", LoginRequest{Email: "student1", Password: "123456", Role: "student"}, http.StatusBadRequest},
		{"wrong password", LoginRequest{Email: "student1@credvault.test", Password: "654321", Role: "student"}, http.StatusUnauthorized},
		{"role not held", LoginRequest{Email: "student1@credvault.test", Password: "123456", Role: "admin"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			expectStatus(t, rec, tt.want)
		})
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.login(t, models.RoleAdmin, "admin1")

	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil), http.StatusOK)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/admin/stats", token, nil), http.StatusUnauthorized)
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil), http.StatusUnauthorized)
}

func TestRoleGuards(t *testing.T) {
	srv := newTestServer(t)
	student, _ := srv.login(t, models.RoleStudent, "student1")
	recruiter, _ := srv.login(t, models.RoleRecruiter, "recruiter1")
	faculty, _ := srv.login(t, models.RoleFaculty, "faculty1")
	sub := srv.submit(t, student, "AWS Cert", "certificate")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/review/queue", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/review/queue", "garbage", http.StatusUnauthorized},
		{"student approves", http.MethodPost, "/api/v1/submissions/" + sub.ID + "/approve", student, http.StatusForbidden},
		{"recruiter reads queue", http.MethodGet, "/api/v1/review/queue", recruiter, http.StatusForbidden},
		{"faculty submits", http.MethodPost, "/api/v1/submissions", faculty, http.StatusForbidden},
		{"faculty reads stats", http.MethodGet, "/api/v1/admin/stats", faculty, http.StatusForbidden},
		{"student searches candidates", http.MethodGet, "/api/v1/candidates", student, http.StatusForbidden},
		{"recruiter reads a submission", http.MethodGet, "/api/v1/submissions/" + sub.ID, recruiter, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.path, tt.token, nil)
			expectStatus(t, rec, tt.want)
		})
	}

	stored, _ := srv.stores.Submissions.GetByID(t.Context(), sub.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("status = %s after refused commands, expected pending", stored.Status)
	}
}

func TestReviewLifecycle(t *testing.T) {
	srv := newTestServer(t)
	student, studentID := srv.login(t, models.RoleStudent, "student1")
	faculty, _ := srv.login(t, models.RoleFaculty, "faculty1")
	recruiter, _ := srv.login(t, models.RoleRecruiter, "recruiter1")

	sub := srv.submit(t, student, "AWS Cert", "certificate")
	if sub.Status != models.StatusPending || sub.Priority != models.PriorityMedium {
		t.Fatalf("unexpected new submission %+v", sub)
	}

	rec := srv.do(t, http.MethodGet, "/api/v1/review/queue", faculty, nil)
	expectStatus(t, rec, http.StatusOK)
	var queue []models.Submission
	decode(t, rec, &queue)
	if len(queue) != 1 || queue[0].ID != sub.ID {
		t.Fatalf("queue = %+v, expected the new submission", queue)
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/comments", faculty, CommentRequest{Text: "please add the issue date"})
	expectStatus(t, rec, http.StatusCreated)

	comment := "verified with issuer"
	rec = srv.do(t, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/approve", faculty, DecisionRequest{Comment: &comment})
	expectStatus(t, rec, http.StatusOK)
	var approved models.Submission
	decode(t, rec, &approved)
	if approved.Status != models.StatusApproved || approved.ReviewerID == nil || len(approved.Comments) != 1 {
		t.Errorf("unexpected approval %+v", approved)
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/reject", faculty, nil)
	expectStatus(t, rec, http.StatusConflict)

	rec = srv.do(t, http.MethodGet, "/api/v1/students/me/history?status=approved", student, nil)
	expectStatus(t, rec, http.StatusOK)
	var history []models.Submission
	decode(t, rec, &history)
	if len(history) != 1 || history[0].ID != sub.ID {
		t.Errorf("history = %+v", history)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/students/me/portfolio", student, nil)
	expectStatus(t, rec, http.StatusOK)
	var portfolio models.Portfolio
	decode(t, rec, &portfolio)
	if portfolio.Approved != 1 || portfolio.Completion != 8 {
		t.Errorf("portfolio = %+v, expected 1 approved at 8%%", portfolio)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/candidates?q=student1", recruiter, nil)
	expectStatus(t, rec, http.StatusOK)
	var candidates []models.CandidateProfile
	decode(t, rec, &candidates)
	if len(candidates) != 1 || candidates[0].StudentID != studentID.ID {
		t.Errorf("candidates = %+v", candidates)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/review/activity", faculty, nil)
	expectStatus(t, rec, http.StatusOK)
	var activity []models.AuditLog
	decode(t, rec, &activity)
	if len(activity) != 2 {
		t.Errorf("activity = %+v, expected approve and comment", activity)
	}
}

func TestDecisionWithoutBody(t *testing.T) {
	srv := newTestServer(t)
	student, _ := srv.login(t, models.RoleStudent, "student1")
	faculty, _ := srv.login(t, models.RoleFaculty, "faculty1")

	tests := []struct {
		name          string
		action        string
		body          string
		contentLength int64
		wantStatus    int
	}{
		{"approve with empty chunked body", "approve", "", -1, http.StatusOK},
		{"reject with empty chunked body", "reject", "", -1, http.StatusOK},
		{"approve with zero length", "approve", "", 0, http.StatusOK},
		{"approve with malformed body", "approve", "{", -1, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := srv.submit(t, student, "Transcript", "course")

			req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/"+sub.ID+"/"+tt.action, strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			req.Header.Set("Authorization", "Bearer "+faculty)
			rec := httptest.NewRecorder()
			srv.handler.ServeHTTP(rec, req)

			expectStatus(t, rec, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var decided models.Submission
			decode(t, rec, &decided)
			if decided.Status == models.StatusPending || decided.ReviewComment != nil {
				t.Errorf("unexpected decision %+v", decided)
			}
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	srv := newTestServer(t)
	student, _ := srv.login(t, models.RoleStudent, "student1")

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"missing title", SubmitRequest{DocumentType: "course", FileRef: "f.pdf"}, "title"},
		{"unknown type", SubmitRequest{Title: "t", DocumentType: "diploma", FileRef: "f.pdf"}, "document_type"},
		{"unknown priority", SubmitRequest{Title: "t", DocumentType: "course", FileRef: "f.pdf", Priority: "urgent"}, "priority"},
		{"unknown field", map[string]string{"title": "t", "owner": "me"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/v1/submissions", student, tt.body)
			expectStatus(t, rec, http.StatusBadRequest)

			var resp ErrorResponse
			decode(t, rec, &resp)
			if resp.Field != tt.wantField {
				t.Errorf("field = %q, expected %q", resp.Field, tt.wantField)
			}
		})
	}
}

func TestHistoryVisibility(t *testing.T) {
	srv := newTestServer(t)
	student1, id1 := srv.login(t, models.RoleStudent, "student1")
	_, id2 := srv.login(t, models.RoleStudent, "student2")
	faculty, _ := srv.login(t, models.RoleFaculty, "faculty1")
	srv.submit(t, student1, "Hackathon", "achievement")

	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/students/"+id2.ID+"/history", student1, nil), http.StatusForbidden)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/students/"+id1.ID+"/history", student1, nil), http.StatusOK)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/students/00000000-0000-0000-0000-000000000000/history", faculty, nil), http.StatusNotFound)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/students/me/history?status=archived", student1, nil), http.StatusBadRequest)

	rec := srv.do(t, http.MethodGet, "/api/v1/students/"+id1.ID+"/history", faculty, nil)
	expectStatus(t, rec, http.StatusOK)
	var history []models.Submission
	decode(t, rec, &history)
	if len(history) != 1 {
		t.Errorf("history = %+v, expected one submission", history)
	}
}

func TestShortlistRoutes(t *testing.T) {
	srv := newTestServer(t)
	student, studentID := srv.login(t, models.RoleStudent, "student1")
	faculty, _ := srv.login(t, models.RoleFaculty, "faculty1")
	recruiter, _ := srv.login(t, models.RoleRecruiter, "recruiter1")

	add := ShortlistRequest{StudentID: studentID.ID}
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/recruiter/shortlist", recruiter, add), http.StatusNotFound)

	sub := srv.submit(t, student, "Capstone", "project")
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/approve", faculty, nil), http.StatusOK)

	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/recruiter/shortlist", recruiter, add), http.StatusOK)
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/recruiter/shortlist", recruiter, add), http.StatusOK)

	rec := srv.do(t, http.MethodGet, "/api/v1/recruiter/shortlist", recruiter, nil)
	expectStatus(t, rec, http.StatusOK)
	var shortlist []models.CandidateProfile
	decode(t, rec, &shortlist)
	if len(shortlist) != 1 || !shortlist[0].Shortlisted || shortlist[0].Projects != 1 {
		t.Errorf("shortlist = %+v", shortlist)
	}

	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/recruiter/shortlist/"+studentID.ID, recruiter, nil), http.StatusNoContent)
	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/recruiter/shortlist/"+studentID.ID, recruiter, nil), http.StatusNotFound)
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/recruiter/shortlist", recruiter, ShortlistRequest{StudentID: "42"}), http.StatusBadRequest)
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t)
	student, _ := srv.login(t, models.RoleStudent, "student1")
	admin, _ := srv.login(t, models.RoleAdmin, "admin1")
	sub := srv.submit(t, student, "Paper", "research")
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/reject", admin, nil), http.StatusOK)

	rec := srv.do(t, http.MethodGet, "/api/v1/admin/stats", admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var stats models.DashboardStats
	decode(t, rec, &stats)
	if stats.TotalSubmissions != 1 || stats.ByStatus[models.StatusRejected] != 1 || stats.TotalStudents != 1 || stats.ActiveReviewers != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if _, ok := stats.ByDocumentType[models.DocumentCourse]; !ok {
		t.Error("document types should be zero-filled")
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/audit-logs?limit=2", admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var logs []models.AuditLog
	decode(t, rec, &logs)
	if len(logs) != 2 {
		t.Errorf("audit logs = %d entries, expected 2", len(logs))
	}

	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/admin/audit-logs?page=0", admin, nil), http.StatusBadRequest)
}

func TestHealthAndHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("body = %s", rec.Body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/submissions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	preflight := httptest.NewRecorder()
	srv.handler.ServeHTTP(preflight, req)
	if preflight.Code != http.StatusNoContent || preflight.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("preflight = %d %v", preflight.Code, preflight.Header())
	}
}

func TestRespondWithJSONNormalizesNilSlices(t *testing.T) {
	type payload struct {
		Items []string            `json:"items"`
		Inner *models.Submission  `json:"inner"`
		List  []models.Submission `json:"list"`
	}

	rec := httptest.NewRecorder()
	respondWithJSON(rec, http.StatusOK, payload{Inner: &models.Submission{ID: "s1"}})

	body := rec.Body.String()
	for _, want := range []string{`"items":[]`, `"comments":[]`, `"list":[]`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
}
