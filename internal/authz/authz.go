// Package authz centralises the role checks shared by middleware and services.
package authz

import (
	"strings"

	"github.com/noah-isme/educenter-api/internal/models"
)

var knownRoles = map[models.UserRole]struct{}{
	models.RoleSuperAdmin: {},
	models.RoleAdmin:      {},
	models.RoleTeacher:    {},
	models.RoleStudent:    {},
}

// ParseRole maps a raw claim onto the closed set of roles.
func ParseRole(raw string) (models.UserRole, bool) {
	role := models.UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := knownRoles[role]
	return role, ok
}

// IsStaff reports whether the actor holds an administrative role.
func IsStaff(actor models.Actor) bool {
	return actor.Role == models.RoleSuperAdmin || actor.Role == models.RoleAdmin
}

// IsTeacher reports whether the actor is a teacher.
func IsTeacher(actor models.Actor) bool {
	return actor.Role == models.RoleTeacher
}

// OwnsGroup reports whether the actor is the teacher assigned to the group.
func OwnsGroup(actor models.Actor, teacherID string) bool {
	return IsTeacher(actor) && actor.ID != "" && actor.ID == teacherID
}

// CanManageGroup allows staff, and teachers on the groups they teach.
func CanManageGroup(actor models.Actor, teacherID string) bool {
	return IsStaff(actor) || OwnsGroup(actor, teacherID)
}

// HasAnyRole reports whether the actor's role is one of roles.
func HasAnyRole(actor models.Actor, roles ...models.UserRole) bool {
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}
