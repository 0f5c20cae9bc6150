// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package sec

// # User Roles

// UserRole represents an authorization grant attached to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can view aggregate analytics across members (coaches, clinicians)
	RoleCoach UserRole = "coach"

	// Default role for standard registered users
	RoleMember UserRole = "member"
)

// # Role Sets

// HasRole reports whether the given role set contains the target role.
func HasRole(roles []string, target UserRole) bool {
	for _, role := range roles {
		if UserRole(role) == target {
			return true
		}
	}
	return false
}

// DefaultRoles is the role set assigned to newly registered accounts.
func DefaultRoles() []string {
	return []string{string(RoleMember)}
}
