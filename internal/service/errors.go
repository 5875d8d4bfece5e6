package service

import (
	"fmt"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/models"
)

// ValidationError reports malformed command input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PermissionError reports a role that may not perform an action
type PermissionError struct {
	Role   models.Role
	Action auth.Action
	Reason string
}

func (e *PermissionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("permission denied: %s", e.Reason)
	}
	return fmt.Sprintf("permission denied: role %q may not perform %s", e.Role, e.Action)
}

// InvalidStateError reports a decision on a submission that is no longer pending
type InvalidStateError struct {
	SubmissionID string
	Status       models.SubmissionStatus
}

func (e *InvalidStateError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("submission %s already reviewed", e.SubmissionID)
	}
	return fmt.Sprintf("submission %s already reviewed (status %s)", e.SubmissionID, e.Status)
}

// NotFoundError reports an unknown resource id
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// authorize returns a PermissionError unless caller's role allows action
func authorize(caller models.Identity, action auth.Action) error {
	if !auth.Can(caller.Role, action) {
		return &PermissionError{Role: caller.Role, Action: action}
	}
	return nil
}
