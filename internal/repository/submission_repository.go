package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pwannenmacher/credvault/internal/models"
)

// SubmissionRepository handles submission database operations
type SubmissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, student_id, title, document_type, description, file_ref, priority, status,
		       reviewer_id, review_comment, reviewed_at, created_at`

func scanSubmission(row interface{ Scan(...any) error }) (*models.Submission, error) {
	s := &models.Submission{}
	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.Title,
		&s.DocumentType,
		&s.Description,
		&s.FileRef,
		&s.Priority,
		&s.Status,
		&s.ReviewerID,
		&s.ReviewComment,
		&s.ReviewedAt,
		&s.CreatedAt,
	)
	return s, err
}

// Create inserts a new submission
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (id, student_id, title, document_type, description, file_ref, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID,
		submission.StudentID,
		submission.Title,
		submission.DocumentType,
		submission.Description,
		submission.FileRef,
		submission.Priority,
		submission.Status,
		submission.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetByID retrieves a submission with its comment thread
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if err := r.attachComments(ctx, []*models.Submission{submission}); err != nil {
		return nil, err
	}

	return submission, nil
}

// ListByOwner retrieves every submission of a student, newest first
func (r *SubmissionRepository) ListByOwner(ctx context.Context, studentID string) ([]models.Submission, error) {
	if !validID(studentID) {
		return []models.Submission{}, nil
	}
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE student_id = $1 ORDER BY created_at DESC, id`
	return r.list(ctx, query, studentID)
}

// ListByStatus retrieves every submission in status
func (r *SubmissionRepository) ListByStatus(ctx context.Context, status models.SubmissionStatus) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = $1 ORDER BY created_at, id`
	return r.list(ctx, query, status)
}

// ListAll retrieves every submission
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at, id`
	return r.list(ctx, query)
}

func (r *SubmissionRepository) list(ctx context.Context, query string, args ...any) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer closeRows(rows)

	var ptrs []*models.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		ptrs = append(ptrs, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	if err := r.attachComments(ctx, ptrs); err != nil {
		return nil, err
	}

	submissions := make([]models.Submission, 0, len(ptrs))
	for _, s := range ptrs {
		submissions = append(submissions, *s)
	}
	return submissions, nil
}

// Decide writes the decision in one statement guarded by status = 'pending'
func (r *SubmissionRepository) Decide(ctx context.Context, id string, decision models.Decision) (*models.Submission, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	query := `
		UPDATE submissions
		SET status = $2, reviewer_id = $3, review_comment = $4, reviewed_at = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + submissionColumns

	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query,
		id,
		decision.Status,
		decision.ReviewerID,
		decision.Comment,
		decision.ReviewedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM submissions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check submission: %w", err)
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decide submission: %w", err)
	}

	if err := r.attachComments(ctx, []*models.Submission{submission}); err != nil {
		return nil, err
	}

	return submission, nil
}

// AddComment appends to the feedback thread and returns the updated submission
func (r *SubmissionRepository) AddComment(ctx context.Context, comment *models.Comment) (*models.Submission, error) {
	if !validID(comment.SubmissionID) {
		return nil, ErrNotFound
	}

	query := `
		INSERT INTO submission_comments (id, submission_id, author_id, author_name, text, created_at)
		SELECT $1, s.id, $3, $4, $5, $6 FROM submissions s WHERE s.id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		comment.ID,
		comment.SubmissionID,
		comment.AuthorID,
		comment.AuthorName,
		comment.Text,
		comment.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, comment.SubmissionID)
}

// attachComments loads the threads of all submissions in one query
func (r *SubmissionRepository) attachComments(ctx context.Context, submissions []*models.Submission) error {
	if len(submissions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(submissions))
	byID := make(map[string]*models.Submission, len(submissions))
	for _, s := range submissions {
		s.Comments = []models.Comment{}
		ids = append(ids, s.ID)
		byID[s.ID] = s
	}

	query := `
		SELECT id, submission_id, author_id, author_name, text, created_at
		FROM submission_comments
		WHERE submission_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get comments: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.SubmissionID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		if s, ok := byID[c.SubmissionID]; ok {
			s.Comments = append(s.Comments, c)
		}
	}

	return rows.Err()
}
