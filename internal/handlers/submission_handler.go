package handlers

import (
	"context"
	"net/http"

	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/service"
)

// SubmissionHandler handles submission and review commands
type SubmissionHandler struct {
	review *service.ReviewService
	query  *service.QueryService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(review *service.ReviewService, query *service.QueryService) *SubmissionHandler {
	return &SubmissionHandler{review: review, query: query}
}

// SubmitRequest represents a new credential submission
type SubmitRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	DocumentType string `json:"document_type" validate:"required,oneof=certificate achievement course experience project research"`
	Description  string `json:"description" validate:"max=5000"`
	FileRef      string `json:"file_ref" validate:"required,max=500"`
	Priority     string `json:"priority" validate:"oneof=high medium low"`
}

// DecisionRequest carries the optional reviewer comment of an approve or reject
type DecisionRequest struct {
	Comment *string `json:"comment" validate:"max=2000"`
}

// CommentRequest represents a feedback comment
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// Submit creates a pending submission owned by the calling student
// @Summary Submit a credential
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitRequest true "Submission"
// @Success 201 {object} models.Submission
// @Failure 400 {object} ErrorResponse "Invalid submission"
// @Failure 403 {object} ErrorResponse "Only students may submit"
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	submission, err := h.review.Submit(r.Context(), identity, service.SubmitInput{
		Title:        req.Title,
		DocumentType: models.DocumentType(req.DocumentType),
		Description:  req.Description,
		FileRef:      req.FileRef,
		Priority:     models.Priority(req.Priority),
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, submission)
}

// Get returns a single submission with its feedback thread
// @Summary Get a submission
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 403 {object} ErrorResponse "Not the owner or a reviewer"
// @Failure 404 {object} ErrorResponse "Submission not found"
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	submission, err := h.query.Get(r.Context(), identity, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, submission)
}

// Approve approves a pending submission
// @Summary Approve a submission
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param request body DecisionRequest false "Optional reviewer comment"
// @Success 200 {object} models.Submission
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Submission not found"
// @Failure 409 {object} ErrorResponse "Already reviewed"
// @Router /submissions/{id}/approve [post]
func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.review.Approve)
}

// Reject rejects a pending submission
// @Summary Reject a submission
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param request body DecisionRequest false "Optional reviewer comment"
// @Success 200 {object} models.Submission
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Submission not found"
// @Failure 409 {object} ErrorResponse "Already reviewed"
// @Router /submissions/{id}/reject [post]
func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.review.Reject)
}

type decisionFunc func(ctx context.Context, caller models.Identity, id string, comment *string) (*models.Submission, error)

func (h *SubmissionHandler) decide(w http.ResponseWriter, r *http.Request, decide decisionFunc) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req DecisionRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	submission, err := decide(r.Context(), identity, r.PathValue("id"), req.Comment)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, submission)
}

// Comment appends a feedback comment to a submission
// @Summary Comment on a submission
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} models.Submission
// @Failure 400 {object} ErrorResponse "Empty comment"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Submission not found"
// @Router /submissions/{id}/comments [post]
func (h *SubmissionHandler) Comment(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	submission, err := h.review.Comment(r.Context(), identity, r.PathValue("id"), req.Text)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, submission)
}

// Queue lists pending submissions in review order
// @Summary Review queue
// @Description Pending submissions ordered by priority (high first) then age (oldest first)
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Submission
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /review/queue [get]
func (h *SubmissionHandler) Queue(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	queue, err := h.query.PendingQueue(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, queue)
}

// Activity lists the caller's latest review actions
// @Summary Reviewer activity
// @Tags Review
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries" default(10)
// @Success 200 {array} models.AuditLog
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /review/activity [get]
func (h *SubmissionHandler) Activity(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	limit, ok := queryInt(w, r, "limit", service.DefaultActivityLimit, maxPageSize)
	if !ok {
		return
	}

	activity, err := h.query.RecentActivity(r.Context(), identity, limit)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, activity)
}
