package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ratehub/internal/middleware"
	"ratehub/internal/models"
	"ratehub/internal/permissions"
	"ratehub/internal/store"
	"ratehub/internal/validate"
)

// Users groups the account administration handlers plus the self-service
// /users/me endpoints. Administration is keyed by username and restricted
// to admins and superusers.
type Users struct {
	store *store.UserStore
}

// NewUsers creates a new Users handler group.
func NewUsers(s *store.UserStore) *Users {
	return &Users{store: s}
}

type userPayload struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

// List returns all accounts, optionally narrowed by ?search= on username.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	if !requireUserManager(w, r) {
		return
	}

	users, err := h.store.List(r.URL.Query().Get("search"))
	if err != nil {
		serverError(w, err, "user list failed")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

// Create adds an account directly, bypassing the signup code flow. The
// created user still has to go through signup to obtain a token.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	if !requireUserManager(w, r) {
		return
	}

	var req userPayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}

	fields := map[string][]string{}
	if req.Username == nil || *req.Username == "" {
		fields["username"] = append(fields["username"], "this field is required")
	} else if strings.EqualFold(*req.Username, "me") {
		fields["username"] = append(fields["username"], `"me" is not a valid username`)
	} else if !validate.Username(*req.Username) {
		fields["username"] = append(fields["username"], "enter a valid username")
	}
	if req.Email == nil || *req.Email == "" {
		fields["email"] = append(fields["email"], "this field is required")
	} else if !validate.Email(*req.Email) {
		fields["email"] = append(fields["email"], "enter a valid email address")
	}
	if req.Role != nil && !models.ValidRole(models.Role(*req.Role)) {
		fields["role"] = append(fields["role"], "unknown role")
	}
	if len(fields) > 0 {
		fieldErrors(w, fields)
		return
	}

	user := &models.User{Username: *req.Username, Email: *req.Email}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Role != nil {
		user.Role = models.Role(*req.Role)
	}

	created, err := h.store.Create(user)
	if err != nil {
		if store.IsConflict(err) {
			fieldError(w, "username", "username or email already in use")
			return
		}
		serverError(w, err, "user create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Get returns a single account by username.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	if !requireUserManager(w, r) {
		return
	}

	user, ok := h.findUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Update partially modifies an account, including its role.
func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	if !requireUserManager(w, r) {
		return
	}

	user, ok := h.findUser(w, r)
	if !ok {
		return
	}

	var req userPayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}

	updated, ok := h.applyProfile(w, user, &req, true)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes an account, cascading to its reviews and comments.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireUserManager(w, r) {
		return
	}

	deleted, err := h.store.Delete(chi.URLParam(r, "username"))
	if err != nil {
		serverError(w, err, "user delete failed")
		return
	}
	if !deleted {
		notFound(w, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller's own profile.
func (h *Users) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		unauthorized(w)
		return
	}
	respondJSON(w, http.StatusOK, actor)
}

// UpdateMe lets the caller edit their own profile. The role stays pinned
// no matter what the payload says, so a user cannot promote themselves.
func (h *Users) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		unauthorized(w)
		return
	}

	var req userPayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}

	updated, ok := h.applyProfile(w, actor, &req, false)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// applyProfile merges a payload into a user and persists it. Role changes
// are only honored when allowRole is set.
func (h *Users) applyProfile(w http.ResponseWriter, user *models.User, req *userPayload, allowRole bool) (*models.User, bool) {
	fields := map[string][]string{}
	if req.Username != nil {
		if strings.EqualFold(*req.Username, "me") {
			fields["username"] = append(fields["username"], `"me" is not a valid username`)
		} else if !validate.Username(*req.Username) {
			fields["username"] = append(fields["username"], "enter a valid username")
		} else {
			user.Username = *req.Username
		}
	}
	if req.Email != nil {
		if !validate.Email(*req.Email) {
			fields["email"] = append(fields["email"], "enter a valid email address")
		} else {
			user.Email = *req.Email
		}
	}
	if req.Role != nil && allowRole {
		if !models.ValidRole(models.Role(*req.Role)) {
			fields["role"] = append(fields["role"], "unknown role")
		} else {
			user.Role = models.Role(*req.Role)
		}
	}
	if len(fields) > 0 {
		fieldErrors(w, fields)
		return nil, false
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	updated, err := h.store.Update(user)
	if err != nil {
		if store.IsConflict(err) {
			fieldError(w, "username", "username or email already in use")
			return nil, false
		}
		serverError(w, err, "user update failed")
		return nil, false
	}
	return updated, true
}

// findUser resolves the username URL parameter.
func (h *Users) findUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := h.store.FindByUsername(chi.URLParam(r, "username"))
	if err != nil {
		serverError(w, err, "user lookup failed")
		return nil, false
	}
	if user == nil {
		notFound(w, "user not found")
		return nil, false
	}
	return user, true
}

// requireUserManager enforces the admin-or-superuser gate on account
// administration.
func requireUserManager(w http.ResponseWriter, r *http.Request) bool {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		unauthorized(w)
		return false
	}
	if !permissions.CanManageUsers(actor) {
		forbidden(w)
		return false
	}
	return true
}
