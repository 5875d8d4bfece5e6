package models

import (
	"time"
)

// Role is the single role an identity holds for its session
type Role string

const (
	RoleStudent   Role = "student"
	RoleFaculty   Role = "faculty"
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
)

// Roles lists every valid role
var Roles = []Role{RoleStudent, RoleFaculty, RoleAdmin, RoleRecruiter}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin, RoleRecruiter:
		return true
	}
	return false
}

// Identity is the authenticated actor on whose behalf a command or query runs.
// It is a value type: callers pass it explicitly and never mutate a shared copy.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

// User represents an account in the system
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	DisplayName  string     `json:"display_name" db:"display_name"`
	Role         Role       `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Identity returns the session identity for the user
func (u *User) Identity() Identity {
	return Identity{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
	}
}

// StudentProfile holds the discovery metadata of a student
type StudentProfile struct {
	UserID     string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Department string    `json:"department" db:"department"`
	Year       string    `json:"year" db:"year"`
	Location   string    `json:"location" db:"location"`
	Skills     []string  `json:"skills" db:"skills"`
	Rating     float64   `json:"rating" db:"rating"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// SubmissionStatus is the review state of a submission
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// Valid reports whether s is one of the known statuses
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further decision may be applied
func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// allowedTransitions is the review state machine. Terminal states have no exits.
var allowedTransitions = map[SubmissionStatus][]SubmissionStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
}

// CanTransition reports whether a submission may move from s to next
func (s SubmissionStatus) CanTransition(next SubmissionStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DocumentType classifies the uploaded document
type DocumentType string

const (
	DocumentCertificate DocumentType = "certificate"
	DocumentAchievement DocumentType = "achievement"
	DocumentCourse      DocumentType = "course"
	DocumentExperience  DocumentType = "experience"
	DocumentProject     DocumentType = "project"
	DocumentResearch    DocumentType = "research"
)

// DocumentTypes lists every valid document type
var DocumentTypes = []DocumentType{
	DocumentCertificate,
	DocumentAchievement,
	DocumentCourse,
	DocumentExperience,
	DocumentProject,
	DocumentResearch,
}

// Valid reports whether t is one of the known document types
func (t DocumentType) Valid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Priority orders the pending review queue
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Rank returns the queue position of the priority tier; lower ranks are served first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Submission is a student-uploaded document tracked through the review lifecycle
type Submission struct {
	ID            string           `json:"id" db:"id"`
	StudentID     string           `json:"student_id" db:"student_id"`
	Title         string           `json:"title" db:"title"`
	DocumentType  DocumentType     `json:"document_type" db:"document_type"`
	Description   string           `json:"description" db:"description"`
	FileRef       string           `json:"file_ref" db:"file_ref"`
	Priority      Priority         `json:"priority" db:"priority"`
	Status        SubmissionStatus `json:"status" db:"status"`
	ReviewerID    *string          `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewComment *string          `json:"review_comment,omitempty" db:"review_comment"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	Comments      []Comment        `json:"comments"`
}

// Clone returns a deep copy so callers never share mutable state with a store
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	c := *s
	if s.ReviewerID != nil {
		v := *s.ReviewerID
		c.ReviewerID = &v
	}
	if s.ReviewComment != nil {
		v := *s.ReviewComment
		c.ReviewComment = &v
	}
	if s.ReviewedAt != nil {
		v := *s.ReviewedAt
		c.ReviewedAt = &v
	}
	if s.Comments != nil {
		c.Comments = make([]Comment, len(s.Comments))
		copy(c.Comments, s.Comments)
	}
	return &c
}

// Comment is reviewer feedback attached to a submission without changing its status
type Comment struct {
	ID           string    `json:"id" db:"id"`
	SubmissionID string    `json:"submission_id" db:"submission_id"`
	AuthorID     string    `json:"author_id" db:"author_id"`
	AuthorName   string    `json:"author_name" db:"author_name"`
	Text         string    `json:"text" db:"text"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Decision is the atomic outcome written when a pending submission is reviewed
type Decision struct {
	Status     SubmissionStatus
	ReviewerID string
	Comment    *string
	ReviewedAt time.Time
}

// Portfolio aggregates a student's submissions
type Portfolio struct {
	StudentID    string               `json:"student_id"`
	Total        int                  `json:"total"`
	Approved     int                  `json:"approved"`
	Pending      int                  `json:"pending"`
	Rejected     int                  `json:"rejected"`
	Target       int                  `json:"target"`
	Completion   int                  `json:"completion"`
	ApprovalRate float64              `json:"approval_rate"`
	Badges       map[DocumentType]int `json:"badges"`
}

// CandidateProfile is the recruiter-facing projection of a student's verified work
type CandidateProfile struct {
	StudentID     string       `json:"student_id"`
	Name          string       `json:"name"`
	Department    string       `json:"department"`
	Year          string       `json:"year,omitempty"`
	Location      string       `json:"location,omitempty"`
	Skills        []string     `json:"skills"`
	Rating        float64      `json:"rating"`
	Verified      bool         `json:"verified"`
	Badges        int          `json:"badges"`
	Projects      int          `json:"projects"`
	Achievements  []string     `json:"achievements"`
	VerifiedWork  []Submission `json:"verified_work"`
	Shortlisted   bool         `json:"shortlisted"`
	ShortlistedAt *time.Time   `json:"shortlisted_at,omitempty"`
}

// ShortlistEntry records a recruiter's shortlisted student
type ShortlistEntry struct {
	RecruiterID string    `json:"recruiter_id" db:"recruiter_id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DashboardStats summarises the submission store for administrators
type DashboardStats struct {
	TotalSubmissions int                      `json:"total_submissions"`
	ByStatus         map[SubmissionStatus]int `json:"by_status"`
	ByDocumentType   map[DocumentType]int     `json:"by_document_type"`
	TotalStudents    int                      `json:"total_students"`
	ActiveReviewers  int                      `json:"active_reviewers"`
	ApprovalRate     float64                  `json:"approval_rate"`
}

// Session represents a user session
type Session struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	JTI            string    `json:"-" db:"jti"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at" db:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	IPAddress      string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent      string    `json:"user_agent,omitempty" db:"user_agent"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uint      `json:"id" db:"id"`
	UserID    *string   `json:"user_id,omitempty" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Resource  string    `json:"resource" db:"resource"`
	Details   string    `json:"details,omitempty" db:"details"`
	IPAddress string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
