package auth

import "github.com/pwannenmacher/credvault/internal/models"

// Action is a command or view guarded by the permission table
type Action string

const (
	ActionSubmit          Action = "submission.submit"
	ActionApprove         Action = "submission.approve"
	ActionReject          Action = "submission.reject"
	ActionComment         Action = "submission.comment"
	ActionViewQueue       Action = "review.queue"
	ActionViewActivity    Action = "review.activity"
	ActionViewOwnHistory  Action = "history.own"
	ActionViewAnyHistory  Action = "history.any"
	ActionViewPortfolio   Action = "portfolio.view"
	ActionSearchCandidate Action = "candidate.search"
	ActionManageShortlist Action = "candidate.shortlist"
	ActionViewStats       Action = "admin.stats"
	ActionViewAuditLog    Action = "admin.audit"
)

// permissions maps each role to the actions it may perform
var permissions = map[models.Role]map[Action]bool{
	models.RoleStudent: {
		ActionSubmit:         true,
		ActionViewOwnHistory: true,
		ActionViewPortfolio:  true,
	},
	models.RoleFaculty: {
		ActionApprove:        true,
		ActionReject:         true,
		ActionComment:        true,
		ActionViewQueue:      true,
		ActionViewActivity:   true,
		ActionViewAnyHistory: true,
	},
	models.RoleAdmin: {
		ActionApprove:        true,
		ActionReject:         true,
		ActionComment:        true,
		ActionViewQueue:      true,
		ActionViewActivity:   true,
		ActionViewAnyHistory: true,
		ActionViewStats:      true,
		ActionViewAuditLog:   true,
	},
	models.RoleRecruiter: {
		ActionSearchCandidate: true,
		ActionManageShortlist: true,
	},
}

// Can reports whether the role may perform the action
func Can(role models.Role, action Action) bool {
	return permissions[role][action]
}

// RolesFor returns every role allowed to perform the action, in declaration order
func RolesFor(action Action) []models.Role {
	var roles []models.Role
	for _, role := range models.Roles {
		if Can(role, action) {
			roles = append(roles, role)
		}
	}
	return roles
}
