package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pwannenmacher/credvault/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNotPending = errors.New("submission is not pending")
	ErrUserExists = errors.New("user already exists")
)

// SubmissionStore is the authoritative document store for submissions.
// Implementations return copies; mutating a returned value never changes stored state.
type SubmissionStore interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	ListByOwner(ctx context.Context, studentID string) ([]models.Submission, error)
	ListByStatus(ctx context.Context, status models.SubmissionStatus) ([]models.Submission, error)
	ListAll(ctx context.Context) ([]models.Submission, error)
	// Decide applies the decision only while the submission is still pending.
	// It returns ErrNotPending when another decision won, ErrNotFound for unknown ids.
	Decide(ctx context.Context, id string, decision models.Decision) (*models.Submission, error)
	AddComment(ctx context.Context, comment *models.Comment) (*models.Submission, error)
}

// UserStore persists accounts and student profiles
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role models.Role) (int, error)
	UpsertStudentProfile(ctx context.Context, profile *models.StudentProfile) error
	GetStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	ListStudentProfiles(ctx context.Context) ([]models.StudentProfile, error)
}

// SessionStore persists login sessions keyed by token JTI
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByJTI(ctx context.Context, jti string) (*models.Session, error)
	UpdateLastActivity(ctx context.Context, sessionID string) error
	DeleteByJTI(ctx context.Context, jti string) error
	DeleteAllUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// AuditStore persists audit log entries
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]models.AuditLog, error)
	GetAll(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}

// ShortlistStore persists recruiter shortlists
type ShortlistStore interface {
	Add(ctx context.Context, entry *models.ShortlistEntry) error
	Remove(ctx context.Context, recruiterID, studentID string) error
	ListByRecruiter(ctx context.Context, recruiterID string) ([]models.ShortlistEntry, error)
}

// Stores bundles one implementation of every store
type Stores struct {
	Submissions SubmissionStore
	Users       UserStore
	Sessions    SessionStore
	Audit       AuditStore
	Shortlists  ShortlistStore
}

// NewPostgresStores wires every store to the PostgreSQL repositories
func NewPostgresStores(db *sql.DB) *Stores {
	return &Stores{
		Submissions: NewSubmissionRepository(db),
		Users:       NewUserRepository(db),
		Sessions:    NewSessionRepository(db),
		Audit:       NewAuditRepository(db),
		Shortlists:  NewShortlistRepository(db),
	}
}

var (
	_ SubmissionStore = (*SubmissionRepository)(nil)
	_ UserStore       = (*UserRepository)(nil)
	_ SessionStore    = (*SessionRepository)(nil)
	_ AuditStore      = (*AuditRepository)(nil)
	_ ShortlistStore  = (*ShortlistRepository)(nil)
)
