package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ratehub/internal/models"
	"ratehub/internal/store"
)

// Genres groups the genre catalog handlers. Same surface and rules as
// categories.
type Genres struct {
	store *store.GenreStore
}

// NewGenres creates a new Genres handler group.
func NewGenres(s *store.GenreStore) *Genres {
	return &Genres{store: s}
}

// List returns all genres, optionally narrowed by ?search=.
func (h *Genres) List(w http.ResponseWriter, r *http.Request) {
	genres, err := h.store.List(r.URL.Query().Get("search"))
	if err != nil {
		serverError(w, err, "genre list failed")
		return
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	respondJSON(w, http.StatusOK, genres)
}

// Create adds a genre.
func (h *Genres) Create(w http.ResponseWriter, r *http.Request) {
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

	created, err := h.store.Create(&models.Genre{Name: req.Name, Slug: req.Slug})
	if err != nil {
		if store.IsConflict(err) {
			fieldError(w, "slug", "this slug is already in use")
			return
		}
		serverError(w, err, "genre create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Delete removes a genre by slug. Titles keep their other genres.
func (h *Genres) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireCatalogWriter(w, r) {
		return
	}

	deleted, err := h.store.Delete(chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, err, "genre delete failed")
		return
	}
	if !deleted {
		notFound(w, "genre not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
