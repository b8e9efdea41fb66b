// Package permissions centralizes every role-based access decision as a
// pure function over an explicit actor value. A nil actor is an anonymous
// request. Handlers apply a request-level check before loading an object
// and an object-level check before mutating it; both must pass.
package permissions

import (
	"github.com/google/uuid"

	"ratehub/internal/models"
)

// CanManageUsers gates the admin user-management surface: admin role or
// the superuser flag.
func CanManageUsers(actor *models.User) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || actor.IsSuperuser
}

// CanWriteCatalog gates mutations of categories, genres, and titles.
// Reads are never gated; this applies to POST/PUT/PATCH/DELETE only.
func CanWriteCatalog(actor *models.User) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || actor.IsSuperuser
}

// CanWriteContent is the request-level gate for review and comment
// mutations: any authenticated actor may attempt a write. The
// object-level decision is CanModifyContent.
func CanWriteContent(actor *models.User) bool {
	return actor != nil
}

// CanModifyContent is the object-level gate for mutating a specific
// review or comment: moderators and admins may touch anything, everyone
// else only their own.
func CanModifyContent(actor *models.User, authorID uuid.UUID) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() || actor.IsModerator() {
		return true
	}
	return actor.ID == authorID
}
