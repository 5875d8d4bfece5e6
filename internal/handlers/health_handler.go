package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	db      HealthChecker
	version string
	store   string
}

// NewHealthHandler creates a new health handler. db may be nil when the
// memory store is in use.
func NewHealthHandler(db HealthChecker, store, version string) *HealthHandler {
	return &HealthHandler{db: db, store: store, version: version}
}

// Health reports service and database health
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Healthy"
// @Failure 503 {object} map[string]string "Database unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.HealthCheck(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": "error",
			})
			return
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"store":   h.store,
		"version": h.version,
	})
}
