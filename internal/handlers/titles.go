package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ratehub/internal/models"
	"ratehub/internal/store"
	"ratehub/internal/validate"
)

// Titles groups the title catalog handlers. A title references a
// category by slug and any number of genres by slug; responses carry the
// expanded objects plus the computed rating.
type Titles struct {
	titles     *store.TitleStore
	categories *store.CategoryStore
	genres     *store.GenreStore
}

// NewTitles creates a new Titles handler group.
func NewTitles(titles *store.TitleStore, categories *store.CategoryStore, genres *store.GenreStore) *Titles {
	return &Titles{titles: titles, categories: categories, genres: genres}
}

type titlePayload struct {
	Name        *string  `json:"name"`
	Year        *int     `json:"year"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Genre       []string `json:"genre"`
}

// List returns titles filtered by ?category=, ?genre=, ?name= and ?year=.
func (h *Titles) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TitleFilter{
		CategorySlug: q.Get("category"),
		GenreSlug:    q.Get("genre"),
		Name:         q.Get("name"),
	}
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			fieldError(w, "year", "enter a valid year")
			return
		}
		filter.Year = &year
	}

	titles, err := h.titles.List(filter)
	if err != nil {
		serverError(w, err, "title list failed")
		return
	}
	if titles == nil {
		titles = []models.Title{}
	}
	respondJSON(w, http.StatusOK, titles)
}

// Get returns a single title with category, genres and rating.
func (h *Titles) Get(w http.ResponseWriter, r *http.Request) {
	title, ok := h.findTitle(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, title)
}

// Create adds a title.
func (h *Titles) Create(w http.ResponseWriter, r *http.Request) {
	if !requireCatalogWriter(w, r) {
		return
	}

	var req titlePayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}

	fields := map[string][]string{}
	if req.Name == nil || *req.Name == "" {
		fields["name"] = append(fields["name"], "this field is required")
	} else if len(*req.Name) > validate.MaxNameLen {
		fields["name"] = append(fields["name"], "name is too long")
	}
	if req.Year == nil {
		fields["year"] = append(fields["year"], "this field is required")
	} else if !validate.Year(*req.Year) {
		fields["year"] = append(fields["year"], "year cannot be in the future")
	}
	if len(fields) > 0 {
		fieldErrors(w, fields)
		return
	}

	title := &models.Title{Name: *req.Name, Year: *req.Year, Description: req.Description}

	if !h.resolveCategory(w, req.Category, title) {
		return
	}
	genreIDs, ok := h.resolveGenres(w, req.Genre)
	if !ok {
		return
	}

	created, err := h.titles.Create(title, genreIDs)
	if err != nil {
		serverError(w, err, "title create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Update partially modifies a title. Absent fields keep their values; a
// present genre list replaces the associations wholesale.
func (h *Titles) Update(w http.ResponseWriter, r *http.Request) {
	if !requireCatalogWriter(w, r) {
		return
	}

	title, ok := h.findTitle(w, r)
	if !ok {
		return
	}

	var req titlePayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}

	if req.Name != nil {
		if *req.Name == "" || len(*req.Name) > validate.MaxNameLen {
			fieldError(w, "name", "enter a valid name")
			return
		}
		title.Name = *req.Name
	}
	if req.Year != nil {
		if !validate.Year(*req.Year) {
			fieldError(w, "year", "year cannot be in the future")
			return
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = req.Description
	}
	if req.Category != nil {
		if !h.resolveCategory(w, req.Category, title) {
			return
		}
	}

	genreIDs := genreIDsOf(title.Genres)
	if req.Genre != nil {
		resolved, ok := h.resolveGenres(w, req.Genre)
		if !ok {
			return
		}
		genreIDs = resolved
	}

	updated, err := h.titles.Update(title, genreIDs)
	if err != nil {
		serverError(w, err, "title update failed")
		return
	}
	if updated == nil {
		notFound(w, "title not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes a title and, through the schema, its reviews and their
// comments.
func (h *Titles) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireCatalogWriter(w, r) {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "titleID"))
	if err != nil {
		notFound(w, "title not found")
		return
	}

	deleted, err := h.titles.Delete(id)
	if err != nil {
		serverError(w, err, "title delete failed")
		return
	}
	if !deleted {
		notFound(w, "title not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// findTitle resolves the titleID URL parameter. On failure the 404 is
// already written.
func (h *Titles) findTitle(w http.ResponseWriter, r *http.Request) (*models.Title, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "titleID"))
	if err != nil {
		notFound(w, "title not found")
		return nil, false
	}

	title, err := h.titles.FindByID(id)
	if err != nil {
		serverError(w, err, "title lookup failed")
		return nil, false
	}
	if title == nil {
		notFound(w, "title not found")
		return nil, false
	}
	return title, true
}

// resolveCategory maps a category slug onto the title. A nil slug leaves
// the title uncategorized.
func (h *Titles) resolveCategory(w http.ResponseWriter, slug *string, title *models.Title) bool {
	if slug == nil || *slug == "" {
		title.CategoryID = nil
		return true
	}

	cat, err := h.categories.FindBySlug(*slug)
	if err != nil {
		serverError(w, err, "category lookup failed")
		return false
	}
	if cat == nil {
		fieldError(w, "category", "unknown category")
		return false
	}
	title.CategoryID = &cat.ID
	return true
}

// resolveGenres maps genre slugs to IDs, rejecting unknown slugs.
func (h *Titles) resolveGenres(w http.ResponseWriter, slugs []string) ([]uuid.UUID, bool) {
	if len(slugs) == 0 {
		return nil, true
	}

	genres, missing, err := h.genres.FindBySlugs(slugs)
	if err != nil {
		serverError(w, err, "genre lookup failed")
		return nil, false
	}
	if len(missing) > 0 {
		fieldError(w, "genre", "unknown genre: "+missing[0])
		return nil, false
	}
	return genreIDsOf(genres), true
}

func genreIDsOf(genres []models.Genre) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}
