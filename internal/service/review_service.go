package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
)

// SubmitInput carries the fields a student provides for a new submission
type SubmitInput struct {
	Title        string
	DocumentType models.DocumentType
	Description  string
	FileRef      string
	Priority     models.Priority
}

// ReviewService owns every state change of a submission
type ReviewService struct {
	submissions repository.SubmissionStore
	audit       *AuditService
	locks       *keyedMutex
	now         func() time.Time
	newID       func() string
}

// NewReviewService creates a new review service
func NewReviewService(submissions repository.SubmissionStore, audit *AuditService) *ReviewService {
	return &ReviewService{
		submissions: submissions,
		audit:       audit,
		locks:       newKeyedMutex(),
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:       uuid.NewString,
	}
}

// Submit creates a pending submission owned by the caller
func (s *ReviewService) Submit(ctx context.Context, caller models.Identity, input SubmitInput) (*models.Submission, error) {
	if err := authorize(caller, auth.ActionSubmit); err != nil {
		return nil, err
	}

	submission, err := s.buildSubmission(caller, input)
	if err != nil {
		return nil, err
	}

	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	slog.Info("Submission created",
		"submission_id", submission.ID,
		"student_id", caller.ID,
		"document_type", submission.DocumentType,
		"priority", submission.Priority,
	)
	s.audit.Log(ctx, caller.ID, AuditSubmit, ResourceSubmission,
		fmt.Sprintf("Submitted %s %q (ID: %s)", submission.DocumentType, submission.Title, submission.ID))

	return submission, nil
}

func (s *ReviewService) buildSubmission(caller models.Identity, input SubmitInput) (*models.Submission, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title", "must not be blank")
	}
	if !input.DocumentType.Valid() {
		return nil, invalid("document_type", fmt.Sprintf("unknown document type %q", input.DocumentType))
	}
	fileRef := strings.TrimSpace(input.FileRef)
	if fileRef == "" {
		return nil, invalid("file_ref", "must not be blank")
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalid("priority", fmt.Sprintf("unknown priority %q", input.Priority))
	}

	return &models.Submission{
		ID:           s.newID(),
		StudentID:    caller.ID,
		Title:        title,
		DocumentType: input.DocumentType,
		Description:  strings.TrimSpace(input.Description),
		FileRef:      fileRef,
		Priority:     priority,
		Status:       models.StatusPending,
		CreatedAt:    s.now(),
		Comments:     []models.Comment{},
	}, nil
}

// Approve moves a pending submission to approved
func (s *ReviewService) Approve(ctx context.Context, caller models.Identity, id string, comment *string) (*models.Submission, error) {
	return s.decide(ctx, caller, id, models.StatusApproved, auth.ActionApprove, comment)
}

// Reject moves a pending submission to rejected
func (s *ReviewService) Reject(ctx context.Context, caller models.Identity, id string, comment *string) (*models.Submission, error) {
	return s.decide(ctx, caller, id, models.StatusRejected, auth.ActionReject, comment)
}

func (s *ReviewService) decide(
	ctx context.Context,
	caller models.Identity,
	id string,
	target models.SubmissionStatus,
	action auth.Action,
	comment *string,
) (*models.Submission, error) {
	if err := authorize(caller, action); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, id, "failed to get submission")
	}
	if !current.Status.CanTransition(target) {
		return nil, &InvalidStateError{SubmissionID: id, Status: current.Status}
	}

	decision := models.Decision{
		Status:     target,
		ReviewerID: caller.ID,
		Comment:    normalizeComment(comment),
		ReviewedAt: s.now(),
	}

	updated, err := s.submissions.Decide(ctx, id, decision)
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			// another process decided between the read and the write; the winner stays unknown if the re-read fails
			var status models.SubmissionStatus
			if latest, getErr := s.submissions.GetByID(ctx, id); getErr == nil {
				status = latest.Status
			}
			return nil, &InvalidStateError{SubmissionID: id, Status: status}
		}
		return nil, s.storeError(err, id, "failed to store decision")
	}

	auditAction := AuditApprove
	if target == models.StatusRejected {
		auditAction = AuditReject
	}
	slog.Info("Submission reviewed",
		"submission_id", id,
		"status", target,
		"reviewer_id", caller.ID,
		"reviewer_role", caller.Role,
	)
	s.audit.Log(ctx, caller.ID, auditAction, ResourceSubmission,
		fmt.Sprintf("Submission %s %s (ID: %s)", target, updated.Title, id))

	return updated, nil
}

// Comment appends reviewer feedback; the status never changes
func (s *ReviewService) Comment(ctx context.Context, caller models.Identity, id, text string) (*models.Submission, error) {
	if err := authorize(caller, auth.ActionComment); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("text", "must not be blank")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	comment := &models.Comment{
		ID:           s.newID(),
		SubmissionID: id,
		AuthorID:     caller.ID,
		AuthorName:   caller.DisplayName,
		Text:         text,
		CreatedAt:    s.now(),
	}

	updated, err := s.submissions.AddComment(ctx, comment)
	if err != nil {
		return nil, s.storeError(err, id, "failed to add comment")
	}

	slog.Info("Submission commented", "submission_id", id, "author_id", caller.ID)
	s.audit.Log(ctx, caller.ID, AuditComment, ResourceSubmission,
		fmt.Sprintf("Commented on submission %s", id))

	return updated, nil
}

func (s *ReviewService) storeError(err error, id, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "submission", ID: id}
	}
	slog.Error("Submission store failure", "submission_id", id, "error", err)
	return fmt.Errorf("%s: %w", msg, err)
}

// normalizeComment drops blank review comments
func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
