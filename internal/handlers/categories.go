package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ratehub/internal/middleware"
	"ratehub/internal/models"
	"ratehub/internal/permissions"
	"ratehub/internal/store"
	"ratehub/internal/validate"
)

// Categories groups the category catalog handlers. Reads are public;
// writes require catalog management rights.
type Categories struct {
	store *store.CategoryStore
}

// NewCategories creates a new Categories handler group.
func NewCategories(s *store.CategoryStore) *Categories {
	return &Categories{store: s}
}

type slugPayload struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// List returns all categories, optionally narrowed by ?search=.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.List(r.URL.Query().Get("search"))
	if err != nil {
		serverError(w, err, "category list failed")
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	respondJSON(w, http.StatusOK, cats)
}

// Create adds a category.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	if !requireCatalogWriter(w, r) {
		return
	}

	var req slugPayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}
	if fields := validateSlugPayload(req); len(fields) > 0 {
		fieldErrors(w, fields)
		return
	}

	created, err := h.store.Create(&models.Category{Name: req.Name, Slug: req.Slug})
	if err != nil {
		if store.IsConflict(err) {
			fieldError(w, "slug", "this slug is already in use")
			return
		}
		serverError(w, err, "category create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Delete removes a category by slug. Titles in it lose their category
// but keep their reviews.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireCatalogWriter(w, r) {
		return
	}

	deleted, err := h.store.Delete(chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, err, "category delete failed")
		return
	}
	if !deleted {
		notFound(w, "category not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireCatalogWriter enforces the admin-or-superuser gate shared by
// category, genre and title writes. It writes the response on failure.
func requireCatalogWriter(w http.ResponseWriter, r *http.Request) bool {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		unauthorized(w)
		return false
	}
	if !permissions.CanWriteCatalog(actor) {
		forbidden(w)
		return false
	}
	return true
}

// validateSlugPayload checks the shared name+slug shape of categories
// and genres.
func validateSlugPayload(req slugPayload) map[string][]string {
	fields := map[string][]string{}
	if req.Name == "" {
		fields["name"] = append(fields["name"], "this field is required")
	} else if len(req.Name) > validate.MaxNameLen {
		fields["name"] = append(fields["name"], "name is too long")
	}
	if req.Slug == "" {
		fields["slug"] = append(fields["slug"], "this field is required")
	} else if !validate.Slug(req.Slug) {
		fields["slug"] = append(fields["slug"], "enter a valid slug")
	}
	return fields
}
