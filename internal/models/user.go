// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether the given role is one of the known levels.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents an account. Authentication is code-based: there is no
// password, only a confirmation code emailed at signup and exchanged for
// a bearer token.
type User struct {
	ID        uuid.UUID `json:"-"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Bio       string    `json:"bio"`
	Role      Role      `json:"role"`

	// IsSuperuser grants admin-equivalent access regardless of Role.
	IsSuperuser bool `json:"-"`

	// ConfirmationEpoch counts confirmation-code issuances. Each signup
	// or re-request bumps it, invalidating previously issued codes.
	ConfirmationEpoch int64 `json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator returns true if the user has the moderator role.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
