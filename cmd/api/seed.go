package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pwannenmacher/credvault/internal/models"
	"github.com/pwannenmacher/credvault/internal/repository"
	"github.com/pwannenmacher/credvault/internal/service"
)

type demoSubmission struct {
	title    string
	docType  models.DocumentType
	priority models.Priority
	decision models.SubmissionStatus
}

type demoStudent struct {
	email       string
	profile     models.StudentProfile
	submissions []demoSubmission
}

var demoStudents = []demoStudent{
	{
		email: "alex.kumar@credvault.dev",
		profile: models.StudentProfile{
			Name: "Alex Kumar", Department: "Computer Science", Year: "4th Year", Location: "Mumbai",
			Skills: []string{"React", "Node.js", "Python", "AWS"}, Rating: 4.8,
		},
		submissions: []demoSubmission{
			{"AWS Cloud Practitioner", models.DocumentCertificate, models.PriorityHigh, models.StatusApproved},
			{"Hackathon Winner", models.DocumentAchievement, models.PriorityMedium, models.StatusApproved},
			{"E-commerce Web App", models.DocumentProject, models.PriorityMedium, models.StatusPending},
		},
	},
	{
		email: "sarah.chen@credvault.dev",
		profile: models.StudentProfile{
			Name: "Sarah Chen", Department: "Electronics", Year: "4th Year", Location: "Bangalore",
			Skills: []string{"IoT", "Embedded Systems", "Arduino", "C++"}, Rating: 4.9,
		},
		submissions: []demoSubmission{
			{"Research Publication", models.DocumentResearch, models.PriorityHigh, models.StatusApproved},
			{"Summer Internship", models.DocumentExperience, models.PriorityLow, models.StatusRejected},
		},
	},
	{
		email: "raj.patel@credvault.dev",
		profile: models.StudentProfile{
			Name: "Raj Patel", Department: "Computer Science", Year: "3rd Year", Location: "Pune",
			Skills: []string{"Machine Learning", "TensorFlow", "Python", "Data Science"}, Rating: 4.7,
		},
		submissions: []demoSubmission{
			{"Machine Learning Specialization", models.DocumentCourse, models.PriorityMedium, models.StatusApproved},
			{"AI Chatbot", models.DocumentProject, models.PriorityHigh, models.StatusPending},
		},
	},
	{
		email: "emma.wilson@credvault.dev",
		profile: models.StudentProfile{
			Name: "Emma Wilson", Department: "Mechanical", Year: "4th Year", Location: "Delhi",
			Skills: []string{"CAD", "SolidWorks", "Project Management"}, Rating: 4.6,
		},
		submissions: []demoSubmission{
			{"Design Competition", models.DocumentAchievement, models.PriorityLow, models.StatusPending},
		},
	},
}

// seedDemoData creates demo accounts for every role plus a few reviewed
// submissions. It does nothing when the demo faculty account already exists.
func seedDemoData(ctx context.Context, accounts *service.AuthService, review *service.ReviewService, password string) error {
	create := func(email, name string, role models.Role, profile *models.StudentProfile) (models.Identity, error) {
		user, err := accounts.CreateAccount(ctx, service.AccountInput{
			Email:       email,
			Password:    password,
			DisplayName: name,
			Role:        role,
			Profile:     profile,
		})
		if err != nil {
			return models.Identity{}, fmt.Errorf("failed to create demo account %s: %w", email, err)
		}
		return user.Identity(), nil
	}

	faculty, err := create("faculty@credvault.dev", "Dr. Priya Sharma", models.RoleFaculty, nil)
	if errors.Is(err, repository.ErrUserExists) {
		slog.Info("Demo data already present, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := create("recruiter@credvault.dev", "Tech Corp Recruiting", models.RoleRecruiter, nil); err != nil {
		return err
	}
	if _, err := create("admin@credvault.dev", "Platform Admin", models.RoleAdmin, nil); err != nil {
		return err
	}

	for _, demo := range demoStudents {
		profile := demo.profile
		student, err := create(demo.email, profile.Name, models.RoleStudent, &profile)
		if err != nil {
			return err
		}

		for _, s := range demo.submissions {
			sub, err := review.Submit(ctx, student, service.SubmitInput{
				Title:        s.title,
				DocumentType: s.docType,
				Description:  "Demo submission",
				FileRef:      "demo/" + s.title + ".pdf",
				Priority:     s.priority,
			})
			if err != nil {
				return fmt.Errorf("failed to seed submission %q: %w", s.title, err)
			}

			switch s.decision {
			case models.StatusApproved:
				_, err = review.Approve(ctx, faculty, sub.ID, nil)
			case models.StatusRejected:
				comment := "Please upload the signed completion letter"
				_, err = review.Reject(ctx, faculty, sub.ID, &comment)
			}
			if err != nil {
				return fmt.Errorf("failed to review seeded submission %q: %w", s.title, err)
			}
		}
	}

	slog.Info("Demo data seeded", "students", len(demoStudents))
	return nil
}
