// Package memory provides mutex-guarded in-memory implementations of the
// repository stores. Every read returns a copy.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
)

// NewStores returns a fresh, empty set of in-memory stores
func NewStores() *repository.Stores {
	return &repository.Stores{
		Submissions: NewSubmissionStore(),
		Users:       NewUserStore(),
		Sessions:    NewSessionStore(),
		Audit:       NewAuditStore(),
		Shortlists:  NewShortlistStore(),
	}
}

// SubmissionStore keeps submissions in a map keyed by id
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions map[string]*models.Submission
}

// NewSubmissionStore creates an empty submission store
func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{submissions: make(map[string]*models.Submission)}
}

func (s *SubmissionStore) Create(ctx context.Context, submission *models.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := submission.Clone()
	if stored.Comments == nil {
		stored.Comments = []models.Comment{}
	}
	s.submissions[submission.ID] = stored
	return nil
}

func (s *SubmissionStore) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	submission, ok := s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return submission.Clone(), nil
}

func (s *SubmissionStore) ListByOwner(ctx context.Context, studentID string) ([]models.Submission, error) {
	list, err := s.filter(ctx, func(sub *models.Submission) bool { return sub.StudentID == studentID })
	if err != nil {
		return nil, err
	}
	slices.SortFunc(list, func(a, b models.Submission) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return list, nil
}

func (s *SubmissionStore) ListByStatus(ctx context.Context, status models.SubmissionStatus) ([]models.Submission, error) {
	return s.filter(ctx, func(sub *models.Submission) bool { return sub.Status == status })
}

func (s *SubmissionStore) ListAll(ctx context.Context) ([]models.Submission, error) {
	return s.filter(ctx, func(*models.Submission) bool { return true })
}

// filter returns copies of matching submissions ordered by created_at then id
func (s *SubmissionStore) filter(ctx context.Context, keep func(*models.Submission) bool) ([]models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Submission, 0)
	for _, sub := range s.submissions {
		if keep(sub) {
			list = append(list, *sub.Clone())
		}
	}
	slices.SortFunc(list, func(a, b models.Submission) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return list, nil
}

// Decide applies the decision under the write lock, so the status check and the write are one step
func (s *SubmissionStore) Decide(ctx context.Context, id string, decision models.Decision) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if submission.Status != models.StatusPending {
		return nil, repository.ErrNotPending
	}

	reviewer := decision.ReviewerID
	reviewedAt := decision.ReviewedAt
	submission.Status = decision.Status
	submission.ReviewerID = &reviewer
	submission.ReviewedAt = &reviewedAt
	if decision.Comment != nil {
		comment := *decision.Comment
		submission.ReviewComment = &comment
	}

	return submission.Clone(), nil
}

func (s *SubmissionStore) AddComment(ctx context.Context, comment *models.Comment) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.submissions[comment.SubmissionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	submission.Comments = append(submission.Comments, *comment)
	return submission.Clone(), nil
}

// UserStore keeps accounts and student profiles
type UserStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	byEmail  map[string]string
	profiles map[string]*models.StudentProfile
}

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{
		users:    make(map[string]*models.User),
		byEmail:  make(map[string]string),
		profiles: make(map[string]*models.StudentProfile),
	}
}

func (u *UserStore) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := u.byEmail[key]; exists {
		return repository.ErrUserExists
	}
	if _, exists := u.users[user.ID]; exists {
		return repository.ErrUserExists
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	u.users[user.ID] = &stored
	u.byEmail[key] = user.ID
	return nil
}

func (u *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	id, ok := u.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u.users[id]
	return &out, nil
}

func (u *UserStore) UpdateLastLogin(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	user, ok := u.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	return nil
}

func (u *UserStore) CountByRole(ctx context.Context, role models.Role) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	count := 0
	for _, user := range u.users {
		if user.Role == role && user.IsActive {
			count++
		}
	}
	return count, nil
}

func (u *UserStore) UpsertStudentProfile(ctx context.Context, profile *models.StudentProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	profile.UpdatedAt = time.Now()
	u.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

func (u *UserStore) GetStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	profile, ok := u.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneProfile(profile), nil
}

// ListStudentProfiles returns the profiles of active students ordered by name
func (u *UserStore) ListStudentProfiles(ctx context.Context) ([]models.StudentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	profiles := make([]models.StudentProfile, 0, len(u.profiles))
	for id, profile := range u.profiles {
		if user, ok := u.users[id]; ok && !user.IsActive {
			continue
		}
		profiles = append(profiles, *cloneProfile(profile))
	}
	slices.SortFunc(profiles, func(a, b models.StudentProfile) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return profiles, nil
}

func cloneProfile(p *models.StudentProfile) *models.StudentProfile {
	out := *p
	out.Skills = slices.Clone(p.Skills)
	if out.Skills == nil {
		out.Skills = []string{}
	}
	return &out
}

// SessionStore keeps sessions keyed by JTI
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	s.sessions[session.JTI] = &stored
	return nil
}

// GetByJTI returns the session unless it is missing or expired
func (s *SessionStore) GetByJTI(ctx context.Context, jti string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[jti]
	if !ok || !session.ExpiresAt.After(s.now()) {
		return nil, repository.ErrNotFound
	}
	out := *session
	return &out, nil
}

func (s *SessionStore) UpdateLastActivity(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.ID == sessionID {
			session.LastActivityAt = s.now()
			return nil
		}
	}
	return nil
}

func (s *SessionStore) DeleteByJTI(ctx context.Context, jti string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, jti)
	return nil
}

func (s *SessionStore) DeleteAllUserSessions(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, jti)
		}
	}
	return nil
}

func (s *SessionStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for jti, session := range s.sessions {
		if session.ExpiresAt.Before(now) {
			delete(s.sessions, jti)
			removed++
		}
	}
	return removed, nil
}

// AuditStore keeps audit entries in insertion order
type AuditStore struct {
	mu     sync.RWMutex
	logs   []models.AuditLog
	nextID uint
}

// NewAuditStore creates an empty audit store
func NewAuditStore() *AuditStore {
	return &AuditStore{nextID: 1}
}

func (a *AuditStore) Create(ctx context.Context, log *models.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	log.ID = a.nextID
	a.nextID++
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	stored := *log
	if log.UserID != nil {
		id := *log.UserID
		stored.UserID = &id
	}
	a.logs = append(a.logs, stored)
	return nil
}

func (a *AuditStore) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]models.AuditLog, error) {
	return a.page(ctx, limit, offset, func(l *models.AuditLog) bool {
		return l.UserID != nil && *l.UserID == userID
	})
}

func (a *AuditStore) GetAll(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	return a.page(ctx, limit, offset, func(*models.AuditLog) bool { return true })
}

// page walks newest first, matching ORDER BY created_at DESC, id DESC
func (a *AuditStore) page(ctx context.Context, limit, offset int, keep func(*models.AuditLog) bool) ([]models.AuditLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	matched := make([]models.AuditLog, 0)
	for i := range a.logs {
		if keep(&a.logs[i]) {
			matched = append(matched, a.logs[i])
		}
	}
	slices.SortStableFunc(matched, func(x, y models.AuditLog) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(y.ID, x.ID)
	})

	if offset >= len(matched) {
		return []models.AuditLog{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// ShortlistStore keeps recruiter shortlists
type ShortlistStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]time.Time
}

// NewShortlistStore creates an empty shortlist store
func NewShortlistStore() *ShortlistStore {
	return &ShortlistStore{entries: make(map[string]map[string]time.Time)}
}

func (s *ShortlistStore) Add(ctx context.Context, entry *models.ShortlistEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.entries[entry.RecruiterID]
	if !ok {
		list = make(map[string]time.Time)
		s.entries[entry.RecruiterID] = list
	}
	if existing, ok := list[entry.StudentID]; ok {
		entry.CreatedAt = existing
		return nil
	}
	list[entry.StudentID] = entry.CreatedAt
	return nil
}

func (s *ShortlistStore) Remove(ctx context.Context, recruiterID, studentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[recruiterID][studentID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.entries[recruiterID], studentID)
	return nil
}

func (s *ShortlistStore) ListByRecruiter(ctx context.Context, recruiterID string) ([]models.ShortlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.ShortlistEntry, 0, len(s.entries[recruiterID]))
	for studentID, at := range s.entries[recruiterID] {
		entries = append(entries, models.ShortlistEntry{RecruiterID: recruiterID, StudentID: studentID, CreatedAt: at})
	}
	slices.SortFunc(entries, func(a, b models.ShortlistEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.StudentID, b.StudentID)
	})
	return entries, nil
}

var (
	_ repository.SubmissionStore = (*SubmissionStore)(nil)
	_ repository.UserStore       = (*UserStore)(nil)
	_ repository.SessionStore    = (*SessionStore)(nil)
	_ repository.AuditStore      = (*AuditStore)(nil)
	_ repository.ShortlistStore  = (*ShortlistStore)(nil)
)
