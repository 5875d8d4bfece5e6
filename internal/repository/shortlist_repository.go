package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pwannenmacher/credvault/internal/models"
)

// ShortlistRepository handles recruiter shortlist database operations
type ShortlistRepository struct {
	db *sql.DB
}

// NewShortlistRepository creates a new shortlist repository
func NewShortlistRepository(db *sql.DB) *ShortlistRepository {
	return &ShortlistRepository{db: db}
}

// Add shortlists a student; adding an existing entry keeps the original timestamp
func (r *ShortlistRepository) Add(ctx context.Context, entry *models.ShortlistEntry) error {
	query := `
		INSERT INTO shortlists (recruiter_id, student_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (recruiter_id, student_id) DO UPDATE SET created_at = shortlists.created_at
		RETURNING created_at
	`

	if err := r.db.QueryRowContext(ctx, query, entry.RecruiterID, entry.StudentID, entry.CreatedAt).Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to add shortlist entry: %w", err)
	}

	return nil
}

// Remove deletes a shortlist entry
func (r *ShortlistRepository) Remove(ctx context.Context, recruiterID, studentID string) error {
	if !validID(studentID) {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM shortlists WHERE recruiter_id = $1 AND student_id = $2`, recruiterID, studentID)
	if err != nil {
		return fmt.Errorf("failed to remove shortlist entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove shortlist entry: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByRecruiter retrieves a recruiter's shortlist, newest first
func (r *ShortlistRepository) ListByRecruiter(ctx context.Context, recruiterID string) ([]models.ShortlistEntry, error) {
	query := `
		SELECT recruiter_id, student_id, created_at
		FROM shortlists
		WHERE recruiter_id = $1
		ORDER BY created_at DESC, student_id
	`

	rows, err := r.db.QueryContext(ctx, query, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlist: %w", err)
	}
	defer closeRows(rows)

	var entries []models.ShortlistEntry
	for rows.Next() {
		var entry models.ShortlistEntry
		if err := rows.Scan(&entry.RecruiterID, &entry.StudentID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shortlist entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shortlist: %w", err)
	}

	return entries, nil
}
