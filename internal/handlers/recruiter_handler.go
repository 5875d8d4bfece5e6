package handlers

import (
	"net/http"

	"github.com/pwannenmacher/credvault/internal/service"
)

// RecruiterHandler serves candidate search and the recruiter shortlist
type RecruiterHandler struct {
	query *service.QueryService
}

// NewRecruiterHandler creates a new recruiter handler
func NewRecruiterHandler(query *service.QueryService) *RecruiterHandler {
	return &RecruiterHandler{query: query}
}

// ShortlistRequest names the student to shortlist
type ShortlistRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

// SearchCandidates lists students with verified work
// @Summary Search candidates
// @Description Candidates are built from approved submissions only
// @Tags Recruiters
// @Produce json
// @Security BearerAuth
// @Param q query string false "Free text over name, skills and department"
// @Param skill query string false "Exact skill"
// @Param department query string false "Exact department"
// @Success 200 {array} models.CandidateProfile
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /candidates [get]
func (h *RecruiterHandler) SearchCandidates(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	candidates, err := h.query.CandidateSearch(r.Context(), identity, service.CandidateQuery{
		Query:      q.Get("q"),
		Skill:      q.Get("skill"),
		Department: q.Get("department"),
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, candidates)
}

// ListShortlist returns the caller's shortlisted candidates
// @Summary List shortlist
// @Tags Recruiters
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CandidateProfile
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /recruiter/shortlist [get]
func (h *RecruiterHandler) ListShortlist(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	shortlist, err := h.query.Shortlist(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, shortlist)
}

// AddToShortlist shortlists a candidate. Adding twice keeps the first entry.
// @Summary Add to shortlist
// @Tags Recruiters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ShortlistRequest true "Candidate"
// @Success 200 {object} models.ShortlistEntry
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Candidate not found"
// @Router /recruiter/shortlist [post]
func (h *RecruiterHandler) AddToShortlist(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req ShortlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.query.AddToShortlist(r.Context(), identity, req.StudentID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// RemoveFromShortlist drops a candidate from the caller's shortlist
// @Summary Remove from shortlist
// @Tags Recruiters
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 204 "Removed"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not shortlisted"
// @Router /recruiter/shortlist/{studentId} [delete]
func (h *RecruiterHandler) RemoveFromShortlist(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.query.RemoveFromShortlist(r.Context(), identity, r.PathValue("studentId")); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
