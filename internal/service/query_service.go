package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
)

// DefaultPortfolioTarget is the number of approved documents counted as a complete portfolio
const DefaultPortfolioTarget = 12

// DefaultActivityLimit bounds RecentActivity when the caller passes no limit
const DefaultActivityLimit = 10

// CandidateQuery filters the recruiter candidate search
type CandidateQuery struct {
	Query      string
	Skill      string
	Department string
}

// QueryService serves the read-only, role-scoped views over the submission store
type QueryService struct {
	submissions repository.SubmissionStore
	users       repository.UserStore
	shortlists  repository.ShortlistStore
	audit       *AuditService
	target      int
	now         func() time.Time
}

// NewQueryService creates a new query service. A non-positive target falls back to DefaultPortfolioTarget.
func NewQueryService(stores *repository.Stores, audit *AuditService, portfolioTarget int) *QueryService {
	if portfolioTarget <= 0 {
		portfolioTarget = DefaultPortfolioTarget
	}
	return &QueryService{
		submissions: stores.Submissions,
		users:       stores.Users,
		shortlists:  stores.Shortlists,
		audit:       audit,
		target:      portfolioTarget,
		now:         time.Now,
	}
}

// Get returns one submission to its owner or to a reviewer
func (s *QueryService) Get(ctx context.Context, caller models.Identity, id string) (*models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "submission", ID: id}
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if submission.StudentID == caller.ID && auth.Can(caller.Role, auth.ActionViewOwnHistory) {
		return submission, nil
	}
	if auth.Can(caller.Role, auth.ActionViewAnyHistory) {
		return submission, nil
	}

	return nil, &PermissionError{Role: caller.Role, Action: auth.ActionViewAnyHistory, Reason: "cannot view this submission"}
}

// PendingQueue lists every pending submission by priority, then age, then id
func (s *QueryService) PendingQueue(ctx context.Context, caller models.Identity) ([]models.Submission, error) {
	if err := authorize(caller, auth.ActionViewQueue); err != nil {
		return nil, err
	}

	pending, err := s.submissions.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}

	sortQueue(pending)
	return pending, nil
}

func sortQueue(list []models.Submission) {
	slices.SortFunc(list, func(a, b models.Submission) int {
		if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// History lists a student's submissions newest first, optionally filtered by status.
// Students may only read their own; an empty studentID means the caller.
func (s *QueryService) History(ctx context.Context, caller models.Identity, studentID string, status models.SubmissionStatus) ([]models.Submission, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	if studentID == "" {
		studentID = caller.ID
	}

	switch {
	case studentID == caller.ID && auth.Can(caller.Role, auth.ActionViewOwnHistory):
	case auth.Can(caller.Role, auth.ActionViewAnyHistory):
		if _, err := s.users.GetByID(ctx, studentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &NotFoundError{Resource: "student", ID: studentID}
			}
			return nil, fmt.Errorf("failed to get student: %w", err)
		}
	case auth.Can(caller.Role, auth.ActionViewOwnHistory):
		return nil, &PermissionError{Role: caller.Role, Action: auth.ActionViewAnyHistory, Reason: "students may only view their own history"}
	default:
		return nil, &PermissionError{Role: caller.Role, Action: auth.ActionViewOwnHistory}
	}

	owned, err := s.submissions.ListByOwner(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	history := make([]models.Submission, 0, len(owned))
	for _, sub := range owned {
		if status == "" || sub.Status == status {
			history = append(history, sub)
		}
	}

	slices.SortStableFunc(history, func(a, b models.Submission) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return history, nil
}

// PortfolioCompletion returns the caller's completion percentage
func (s *QueryService) PortfolioCompletion(ctx context.Context, caller models.Identity) (int, error) {
	portfolio, err := s.Portfolio(ctx, caller)
	if err != nil {
		return 0, err
	}
	return portfolio.Completion, nil
}

// Portfolio aggregates the caller's submissions
func (s *QueryService) Portfolio(ctx context.Context, caller models.Identity) (*models.Portfolio, error) {
	if err := authorize(caller, auth.ActionViewPortfolio); err != nil {
		return nil, err
	}

	owned, err := s.submissions.ListByOwner(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	portfolio := &models.Portfolio{
		StudentID: caller.ID,
		Total:     len(owned),
		Target:    s.target,
		Badges:    make(map[models.DocumentType]int),
	}
	for _, sub := range owned {
		switch sub.Status {
		case models.StatusApproved:
			portfolio.Approved++
			portfolio.Badges[sub.DocumentType]++
		case models.StatusPending:
			portfolio.Pending++
		case models.StatusRejected:
			portfolio.Rejected++
		}
	}

	portfolio.Completion = Completion(portfolio.Approved, s.target)
	portfolio.ApprovalRate = approvalRate(portfolio.Approved, portfolio.Rejected)

	return portfolio, nil
}

// Completion is floor(approved*100/target) clamped to [0, 100]
func Completion(approved, target int) int {
	if target <= 0 || approved <= 0 {
		return 0
	}
	return min(approved*100/target, 100)
}

// approvalRate is the approved share of decided submissions as a percentage with one decimal
func approvalRate(approved, rejected int) float64 {
	decided := approved + rejected
	if decided == 0 {
		return 0
	}
	return math.Round(float64(approved)*1000/float64(decided)) / 10
}

// CandidateSearch lists students with verified work matching the query, best rated first
func (s *QueryService) CandidateSearch(ctx context.Context, caller models.Identity, query CandidateQuery) ([]models.CandidateProfile, error) {
	if err := authorize(caller, auth.ActionSearchCandidate); err != nil {
		return nil, err
	}

	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	shortlisted, err := s.shortlistIndex(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	results := make([]models.CandidateProfile, 0, len(candidates))
	for _, candidate := range candidates {
		if !query.matches(candidate) {
			continue
		}
		if at, ok := shortlisted[candidate.StudentID]; ok {
			candidate.Shortlisted = true
			candidate.ShortlistedAt = &at
		}
		results = append(results, candidate)
	}

	sortCandidates(results)
	return results, nil
}

func (q CandidateQuery) matches(c models.CandidateProfile) bool {
	if q.Department != "" && !strings.EqualFold(strings.TrimSpace(q.Department), c.Department) {
		return false
	}
	if q.Skill != "" {
		skill := strings.TrimSpace(q.Skill)
		if !slices.ContainsFunc(c.Skills, func(s string) bool { return strings.EqualFold(s, skill) }) {
			return false
		}
	}

	needle := strings.ToLower(strings.TrimSpace(q.Query))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(c.Name), needle) || strings.Contains(strings.ToLower(c.Department), needle) {
		return true
	}
	return slices.ContainsFunc(c.Skills, func(s string) bool {
		return strings.Contains(strings.ToLower(s), needle)
	})
}

func sortCandidates(list []models.CandidateProfile) {
	slices.SortFunc(list, func(a, b models.CandidateProfile) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.StudentID, b.StudentID)
	})
}

// candidates builds a profile for every student holding at least one approved submission
func (s *QueryService) candidates(ctx context.Context) ([]models.CandidateProfile, error) {
	approved, err := s.submissions.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved submissions: %w", err)
	}

	byStudent := make(map[string][]models.Submission)
	for _, sub := range approved {
		byStudent[sub.StudentID] = append(byStudent[sub.StudentID], sub)
	}

	profiles, err := s.users.ListStudentProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list student profiles: %w", err)
	}

	candidates := make([]models.CandidateProfile, 0, len(byStudent))
	for _, profile := range profiles {
		work, ok := byStudent[profile.UserID]
		if !ok {
			continue
		}
		candidates = append(candidates, buildCandidate(profile, work))
	}
	return candidates, nil
}

func buildCandidate(profile models.StudentProfile, approved []models.Submission) models.CandidateProfile {
	slices.SortFunc(approved, func(a, b models.Submission) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	candidate := models.CandidateProfile{
		StudentID:    profile.UserID,
		Name:         profile.Name,
		Department:   profile.Department,
		Year:         profile.Year,
		Location:     profile.Location,
		Skills:       slices.Clone(profile.Skills),
		Rating:       profile.Rating,
		Verified:     len(approved) > 0,
		Badges:       len(approved),
		Achievements: []string{},
		VerifiedWork: approved,
	}
	if candidate.Skills == nil {
		candidate.Skills = []string{}
	}

	for _, sub := range approved {
		switch sub.DocumentType {
		case models.DocumentProject:
			candidate.Projects++
		case models.DocumentAchievement, models.DocumentCertificate, models.DocumentResearch:
			candidate.Achievements = append(candidate.Achievements, sub.Title)
		}
	}

	return candidate
}

func (s *QueryService) shortlistIndex(ctx context.Context, recruiterID string) (map[string]time.Time, error) {
	entries, err := s.shortlists.ListByRecruiter(ctx, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlist: %w", err)
	}
	index := make(map[string]time.Time, len(entries))
	for _, entry := range entries {
		index[entry.StudentID] = entry.CreatedAt
	}
	return index, nil
}

// Shortlist returns the caller's shortlisted candidates, most recently added first
func (s *QueryService) Shortlist(ctx context.Context, caller models.Identity) ([]models.CandidateProfile, error) {
	if err := authorize(caller, auth.ActionManageShortlist); err != nil {
		return nil, err
	}

	entries, err := s.shortlists.ListByRecruiter(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlist: %w", err)
	}
	if len(entries) == 0 {
		return []models.CandidateProfile{}, nil
	}

	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.CandidateProfile, len(candidates))
	for _, c := range candidates {
		byID[c.StudentID] = c
	}

	result := make([]models.CandidateProfile, 0, len(entries))
	for _, entry := range entries {
		candidate, ok := byID[entry.StudentID]
		if !ok {
			continue
		}
		at := entry.CreatedAt
		candidate.Shortlisted = true
		candidate.ShortlistedAt = &at
		result = append(result, candidate)
	}
	return result, nil
}

// AddToShortlist shortlists a candidate for the caller. Adding twice is a no-op.
func (s *QueryService) AddToShortlist(ctx context.Context, caller models.Identity, studentID string) (*models.ShortlistEntry, error) {
	if err := authorize(caller, auth.ActionManageShortlist); err != nil {
		return nil, err
	}

	if err := s.requireCandidate(ctx, studentID); err != nil {
		return nil, err
	}

	entry := &models.ShortlistEntry{
		RecruiterID: caller.ID,
		StudentID:   studentID,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.shortlists.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add to shortlist: %w", err)
	}

	s.audit.Log(ctx, caller.ID, AuditShortlistAdd, ResourceShortlist, fmt.Sprintf("Shortlisted student %s", studentID))
	return entry, nil
}

// RemoveFromShortlist drops a candidate from the caller's shortlist
func (s *QueryService) RemoveFromShortlist(ctx context.Context, caller models.Identity, studentID string) error {
	if err := authorize(caller, auth.ActionManageShortlist); err != nil {
		return err
	}

	if err := s.shortlists.Remove(ctx, caller.ID, studentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "shortlist entry", ID: studentID}
		}
		return fmt.Errorf("failed to remove from shortlist: %w", err)
	}

	s.audit.Log(ctx, caller.ID, AuditShortlistRemove, ResourceShortlist, fmt.Sprintf("Removed student %s from shortlist", studentID))
	return nil
}

// requireCandidate fails unless studentID has a profile and verified work
func (s *QueryService) requireCandidate(ctx context.Context, studentID string) error {
	notFound := &NotFoundError{Resource: "candidate", ID: studentID}

	if _, err := s.users.GetStudentProfile(ctx, studentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound
		}
		return fmt.Errorf("failed to get student profile: %w", err)
	}

	owned, err := s.submissions.ListByOwner(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}
	if !slices.ContainsFunc(owned, func(sub models.Submission) bool { return sub.Status == models.StatusApproved }) {
		return notFound
	}
	return nil
}

// Stats summarises the submission store for administrators
func (s *QueryService) Stats(ctx context.Context, caller models.Identity) (*models.DashboardStats, error) {
	if err := authorize(caller, auth.ActionViewStats); err != nil {
		return nil, err
	}

	all, err := s.submissions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	stats := &models.DashboardStats{
		TotalSubmissions: len(all),
		ByStatus: map[models.SubmissionStatus]int{
			models.StatusPending:  0,
			models.StatusApproved: 0,
			models.StatusRejected: 0,
		},
		ByDocumentType: make(map[models.DocumentType]int, len(models.DocumentTypes)),
	}
	for _, t := range models.DocumentTypes {
		stats.ByDocumentType[t] = 0
	}

	reviewers := make(map[string]struct{})
	for _, sub := range all {
		stats.ByStatus[sub.Status]++
		stats.ByDocumentType[sub.DocumentType]++
		if sub.ReviewerID != nil {
			reviewers[*sub.ReviewerID] = struct{}{}
		}
	}
	stats.ActiveReviewers = len(reviewers)
	stats.ApprovalRate = approvalRate(stats.ByStatus[models.StatusApproved], stats.ByStatus[models.StatusRejected])

	students, err := s.users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	stats.TotalStudents = students

	return stats, nil
}

var reviewActions = map[string]bool{
	AuditApprove: true,
	AuditReject:  true,
	AuditComment: true,
}

// RecentActivity returns the caller's latest review actions, newest first
func (s *QueryService) RecentActivity(ctx context.Context, caller models.Identity, limit int) ([]models.AuditLog, error) {
	if err := authorize(caller, auth.ActionViewActivity); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	const pageSize = 100
	activity := make([]models.AuditLog, 0, limit)
	for offset := 0; len(activity) < limit; offset += pageSize {
		page, err := s.audit.ListByUser(ctx, caller.ID, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list activity: %w", err)
		}
		for _, entry := range page {
			if reviewActions[entry.Action] && len(activity) < limit {
				activity = append(activity, entry)
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	return activity, nil
}
