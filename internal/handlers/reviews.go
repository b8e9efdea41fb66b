package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ratehub/internal/middleware"
	"ratehub/internal/models"
	"ratehub/internal/permissions"
	"ratehub/internal/store"
)

// Reviews groups the review handlers, nested under a title. Reads are
// public; creating needs authentication and editing needs authorship or
// moderator rights.
type Reviews struct {
	titles  *store.TitleStore
	reviews *store.ReviewStore
}

// NewReviews creates a new Reviews handler group.
func NewReviews(titles *store.TitleStore, reviews *store.ReviewStore) *Reviews {
	return &Reviews{titles: titles, reviews: reviews}
}

type reviewPayload struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// List returns a title's reviews oldest first.
func (h *Reviews) List(w http.ResponseWriter, r *http.Request) {
	titleID, ok := h.parentTitle(w, r)
	if !ok {
		return
	}

	reviews, err := h.reviews.ListByTitle(titleID)
	if err != nil {
		serverError(w, err, "review list failed")
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	respondJSON(w, http.StatusOK, reviews)
}

// Get returns a single review.
func (h *Reviews) Get(w http.ResponseWriter, r *http.Request) {
	review, ok := h.findReview(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// Create posts a review. Each author gets one review per title; a second
// attempt is rejected without touching the first.
func (h *Reviews) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if !permissions.CanWriteContent(actor) {
		unauthorized(w)
		return
	}

	titleID, ok := h.parentTitle(w, r)
	if !ok {
		return
	}

	var req reviewPayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}
	if fields := validateReview(req, true); len(fields) > 0 {
		fieldErrors(w, fields)
		return
	}

	created, err := h.reviews.Create(&models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     *req.Text,
		Score:    *req.Score,
	})
	if err != nil {
		if store.IsConflict(err) {
			fieldError(w, "detail", "you have already reviewed this title")
			return
		}
		serverError(w, err, "review create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Update modifies a review's text or score. Allowed for the author and
// for moderators and admins.
func (h *Reviews) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		unauthorized(w)
		return
	}

	review, ok := h.findReview(w, r)
	if !ok {
		return
	}
	if !permissions.CanModifyContent(actor, review.AuthorID) {
		forbidden(w)
		return
	}

	var req reviewPayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}
	if fields := validateReview(req, false); len(fields) > 0 {
		fieldErrors(w, fields)
		return
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	updated, err := h.reviews.Update(review)
	if err != nil {
		serverError(w, err, "review update failed")
		return
	}
	if updated == nil {
		notFound(w, "review not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes a review and its comments.
func (h *Reviews) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		unauthorized(w)
		return
	}

	review, ok := h.findReview(w, r)
	if !ok {
		return
	}
	if !permissions.CanModifyContent(actor, review.AuthorID) {
		forbidden(w)
		return
	}

	deleted, err := h.reviews.Delete(review.ID)
	if err != nil {
		serverError(w, err, "review delete failed")
		return
	}
	if !deleted {
		notFound(w, "review not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parentTitle resolves the titleID URL parameter and checks the title
// exists. On failure the 404 is already written.
func (h *Reviews) parentTitle(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "titleID"))
	if err != nil {
		notFound(w, "title not found")
		return uuid.Nil, false
	}

	title, err := h.titles.FindByID(id)
	if err != nil {
		serverError(w, err, "title lookup failed")
		return uuid.Nil, false
	}
	if title == nil {
		notFound(w, "title not found")
		return uuid.Nil, false
	}
	return id, true
}

// findReview resolves the reviewID URL parameter under its title. A
// review reached through the wrong title is a 404, not a leak.
func (h *Reviews) findReview(w http.ResponseWriter, r *http.Request) (*models.Review, bool) {
	titleID, ok := h.parentTitle(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "reviewID"))
	if err != nil {
		notFound(w, "review not found")
		return nil, false
	}

	review, err := h.reviews.FindByID(id)
	if err != nil {
		serverError(w, err, "review lookup failed")
		return nil, false
	}
	if review == nil || review.TitleID != titleID {
		notFound(w, "review not found")
		return nil, false
	}
	return review, true
}

// validateReview checks a review payload. On create both fields are
// required; on update absent fields are fine.
func validateReview(req reviewPayload, requireAll bool) map[string][]string {
	fields := map[string][]string{}
	if req.Text == nil {
		if requireAll {
			fields["text"] = append(fields["text"], "this field is required")
		}
	} else if *req.Text == "" {
		fields["text"] = append(fields["text"], "text cannot be empty")
	}
	if req.Score == nil {
		if requireAll {
			fields["score"] = append(fields["score"], "this field is required")
		}
	} else if *req.Score < 1 || *req.Score > 10 {
		fields["score"] = append(fields["score"], "score must be between 1 and 10")
	}
	return fields
}
