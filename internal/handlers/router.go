package handlers

import (
	"net/http"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router groups everything the HTTP routes are built from
type Router struct {
	Auth       *AuthHandler
	Submission *SubmissionHandler
	Student    *StudentHandler
	Recruiter  *RecruiterHandler
	Admin      *AdminHandler
	Health     *HealthHandler

	AuthMw      *middleware.AuthMiddleware
	CORS        *middleware.CORSMiddleware
	RateLimiter *middleware.RateLimiter
}

// Handler builds the route table and wraps it in the global middleware chain
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// authenticated wraps h so it runs only for callers with a live session
	authenticated := func(h http.HandlerFunc) http.Handler {
		return rt.AuthMw.Authenticate(h)
	}
	// guarded additionally requires a role allowed to perform action
	guarded := func(action auth.Action, h http.HandlerFunc) http.Handler {
		return rt.AuthMw.Authenticate(middleware.RequireAction(action)(h))
	}

	// Public routes
	mux.HandleFunc("POST "+APIBasePath+"/auth/login", rt.Auth.Login)
	mux.HandleFunc("POST "+APIBasePath+"/auth/logout", rt.Auth.Logout)
	mux.Handle("GET "+APIBasePath+"/auth/me", authenticated(rt.Auth.Me))

	// Submissions
	mux.Handle("POST "+APIBasePath+"/submissions", guarded(auth.ActionSubmit, rt.Submission.Submit))
	mux.Handle("GET "+APIBasePath+"/submissions/{id}", authenticated(rt.Submission.Get))
	mux.Handle("POST "+APIBasePath+"/submissions/{id}/approve", guarded(auth.ActionApprove, rt.Submission.Approve))
	mux.Handle("POST "+APIBasePath+"/submissions/{id}/reject", guarded(auth.ActionReject, rt.Submission.Reject))
	mux.Handle("POST "+APIBasePath+"/submissions/{id}/comments", guarded(auth.ActionComment, rt.Submission.Comment))

	// Review
	mux.Handle("GET "+APIBasePath+"/review/queue", guarded(auth.ActionViewQueue, rt.Submission.Queue))
	mux.Handle("GET "+APIBasePath+"/review/activity", guarded(auth.ActionViewActivity, rt.Submission.Activity))

	// Students. Foreign history access is decided by the query service so a
	// student reading their own id still succeeds.
	mux.Handle("GET "+APIBasePath+"/students/me/history", guarded(auth.ActionViewOwnHistory, rt.Student.MyHistory))
	mux.Handle("GET "+APIBasePath+"/students/{id}/history", authenticated(rt.Student.StudentHistory))
	mux.Handle("GET "+APIBasePath+"/students/me/portfolio", guarded(auth.ActionViewPortfolio, rt.Student.Portfolio))

	// Recruiters
	mux.Handle("GET "+APIBasePath+"/candidates", guarded(auth.ActionSearchCandidate, rt.Recruiter.SearchCandidates))
	mux.Handle("GET "+APIBasePath+"/recruiter/shortlist", guarded(auth.ActionManageShortlist, rt.Recruiter.ListShortlist))
	mux.Handle("POST "+APIBasePath+"/recruiter/shortlist", guarded(auth.ActionManageShortlist, rt.Recruiter.AddToShortlist))
	mux.Handle("DELETE "+APIBasePath+"/recruiter/shortlist/{studentId}", guarded(auth.ActionManageShortlist, rt.Recruiter.RemoveFromShortlist))

	// Admin
	mux.Handle("GET "+APIBasePath+"/admin/stats", guarded(auth.ActionViewStats, rt.Admin.Stats))
	mux.Handle("GET "+APIBasePath+"/admin/audit-logs", guarded(auth.ActionViewAuditLog, rt.Admin.ListAuditLogs))

	// Health check
	mux.HandleFunc("GET /health", rt.Health.Health)

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.Chain(mux,
		middleware.LoggingMiddleware,
		middleware.SecurityHeaders,
		rt.CORS.Handler,
		rt.RateLimiter.Limit,
		middleware.ClientInfo,
	)
}
