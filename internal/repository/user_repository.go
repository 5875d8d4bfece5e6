package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pwannenmacher/credvault/internal/models"
)

// UserRepository handles user and student profile database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, display_name, role, is_active, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, display_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.IsActive,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateLastLogin updates the last login timestamp
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// CountByRole counts active users holding role
func (r *UserRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE role = $1 AND is_active = TRUE`
	if err := r.db.QueryRowContext(ctx, query, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// UpsertStudentProfile creates or replaces the discovery profile of a student
func (r *UserRepository) UpsertStudentProfile(ctx context.Context, profile *models.StudentProfile) error {
	query := `
		INSERT INTO student_profiles (user_id, name, department, year, location, skills, rating, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			department = EXCLUDED.department,
			year = EXCLUDED.year,
			location = EXCLUDED.location,
			skills = EXCLUDED.skills,
			rating = EXCLUDED.rating,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}

	_, err := r.db.ExecContext(ctx, query,
		profile.UserID,
		profile.Name,
		profile.Department,
		profile.Year,
		profile.Location,
		pq.Array(skills),
		profile.Rating,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert student profile: %w", err)
	}

	profile.UpdatedAt = now
	return nil
}

const profileColumns = `user_id, name, department, year, location, skills, rating, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*models.StudentProfile, error) {
	profile := &models.StudentProfile{}
	err := row.Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Department,
		&profile.Year,
		&profile.Location,
		pq.Array(&profile.Skills),
		&profile.Rating,
		&profile.UpdatedAt,
	)
	return profile, err
}

// GetStudentProfile retrieves the profile of one student
func (r *UserRepository) GetStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if !validID(userID) {
		return nil, ErrNotFound
	}

	query := `SELECT ` + profileColumns + ` FROM student_profiles WHERE user_id = $1`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}

	return profile, nil
}

// ListStudentProfiles retrieves the profiles of all active students
func (r *UserRepository) ListStudentProfiles(ctx context.Context) ([]models.StudentProfile, error) {
	query := `
		SELECT p.user_id, p.name, p.department, p.year, p.location, p.skills, p.rating, p.updated_at
		FROM student_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE u.is_active = TRUE
		ORDER BY p.name, p.user_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list student profiles: %w", err)
	}
	defer closeRows(rows)

	var profiles []models.StudentProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate student profiles: %w", err)
	}

	return profiles, nil
}
