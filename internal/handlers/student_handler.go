package handlers

import (
	"net/http"

	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/service"
)

// StudentHandler serves submission history and portfolio views
type StudentHandler struct {
	query *service.QueryService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(query *service.QueryService) *StudentHandler {
	return &StudentHandler{query: query}
}

// MyHistory lists the calling student's submissions
// @Summary My submission history
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(pending, approved, rejected)
// @Success 200 {array} models.Submission
// @Failure 400 {object} ErrorResponse "Invalid status filter"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /students/me/history [get]
func (h *StudentHandler) MyHistory(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, "")
}

// StudentHistory lists any student's submissions for reviewers
// @Summary Student submission history
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param status query string false "Filter by status" Enums(pending, approved, rejected)
// @Success 200 {array} models.Submission
// @Failure 400 {object} ErrorResponse "Invalid status filter"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /students/{id}/history [get]
func (h *StudentHandler) StudentHistory(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, r.PathValue("id"))
}

func (h *StudentHandler) history(w http.ResponseWriter, r *http.Request, studentID string) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	status := models.SubmissionStatus(r.URL.Query().Get("status"))
	history, err := h.query.History(r.Context(), identity, studentID, status)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, history)
}

// Portfolio returns the calling student's portfolio summary
// @Summary My portfolio
// @Description Counts by status, completion percentage against the target, approval rate and badges
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Portfolio
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /students/me/portfolio [get]
func (h *StudentHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	portfolio, err := h.query.Portfolio(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, portfolio)
}
