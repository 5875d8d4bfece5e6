package handlers

import (
	"net/http"

	"github.com/pwannenmacher/credvault/internal/service"
)

// AdminHandler serves the administrator dashboard and the audit trail
type AdminHandler struct {
	query *service.QueryService
	audit *service.AuditService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(query *service.QueryService, audit *service.AuditService) *AdminHandler {
	return &AdminHandler{query: query, audit: audit}
}

// Stats returns dashboard counters
// @Summary Dashboard statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DashboardStats
// @Failure 403 {object} ErrorResponse "Forbidden - admin only"
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	stats, err := h.query.Stats(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// ListAuditLogs lists all audit logs with pagination (admin only)
// @Summary List audit logs
// @Description Get a paginated list of all audit logs (admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Success 200 {array} models.AuditLog "List of audit logs"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden - admin only"
// @Router /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page", 1, 1<<20)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", defaultPageSize, maxPageSize)
	if !ok {
		return
	}

	logs, err := h.audit.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}
