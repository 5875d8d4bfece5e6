package service

import (
	"context"
	"log/slog"

	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
)

// Audit actions
const (
	AuditLogin           = "auth.login"
	AuditLoginFailed     = "auth.login_failed"
	AuditLogout          = "auth.logout"
	AuditSubmit          = "submission.submit"
	AuditApprove         = "submission.approve"
	AuditReject          = "submission.reject"
	AuditComment         = "submission.comment"
	AuditShortlistAdd    = "shortlist.add"
	AuditShortlistRemove = "shortlist.remove"
)

// Audit resources
const (
	ResourceSubmission = "submission"
	ResourceSession    = "session"
	ResourceShortlist  = "shortlist"
)

type clientInfoKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// WithClientInfo attaches the caller's address and user agent for audit entries
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

// AuditService handles audit logging
type AuditService struct {
	auditRepo repository.AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repository.AuditStore) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Log creates an audit log entry. Failures are logged and never fail the calling operation.
func (s *AuditService) Log(ctx context.Context, userID, action, resource, details string) {
	if err := s.LogError(ctx, userID, action, resource, details); err != nil {
		slog.Error("Failed to write audit log", "action", action, "resource", resource, "error", err)
	}
}

// LogError creates an audit log entry and returns any error
func (s *AuditService) LogError(ctx context.Context, userID, action, resource, details string) error {
	entry := &models.AuditLog{
		Action:   action,
		Resource: resource,
		Details:  details,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if info, ok := ctx.Value(clientInfoKey{}).(clientInfo); ok {
		entry.IPAddress = info.ip
		entry.UserAgent = info.userAgent
	}
	// the entry must land even when the request was cancelled mid-command
	return s.auditRepo.Create(context.WithoutCancel(ctx), entry)
}

// List returns audit entries newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	return s.auditRepo.GetAll(ctx, limit, offset)
}

// ListByUser returns a user's audit entries newest first
func (s *AuditService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.AuditLog, error) {
	return s.auditRepo.GetByUserID(ctx, userID, limit, offset)
}
