// Package rbac provides role-based access control checks.
package rbac

import (
	"strings"

	"github.com/NicolasHaas/goshop/pkg/model"
)

// Subject is the view of a session that access checks need.
type Subject struct {
	LoggedIn bool
	Roles    []string
}

// IsAdmin reports whether any role equals "admin", ignoring case.
// Navigation, product actions and route guards all go through this predicate.
func IsAdmin(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(r), "admin") {
			return true
		}
	}
	return false
}

// HasPermission checks if a subject may perform an action.
func HasPermission(s Subject, perm model.Permission) bool {
	switch perm {
	case model.PermBrowse:
		return true
	case model.PermPlaceOrder:
		return s.LoggedIn
	case model.PermManageProducts:
		return s.LoggedIn && IsAdmin(s.Roles...)
	default:
		return false
	}
}

// RequirePermission returns an error message if the subject lacks the permission, or empty string if allowed.
func RequirePermission(s Subject, perm model.Permission) string {
	if HasPermission(s, perm) {
		return ""
	}
	if !s.LoggedIn {
		return "permission denied: " + perm.String() + " requires login"
	}
	return "permission denied: " + perm.String() + " requires admin role"
}
