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

// Comments groups the comment handlers, nested under a review. The
// rules mirror reviews: public reads, authenticated creates, author or
// moderator edits.
type Comments struct {
	titles   *store.TitleStore
	reviews  *store.ReviewStore
	comments *store.CommentStore
}

// NewComments creates a new Comments handler group.
func NewComments(titles *store.TitleStore, reviews *store.ReviewStore, comments *store.CommentStore) *Comments {
	return &Comments{titles: titles, reviews: reviews, comments: comments}
}

type commentPayload struct {
	Text *string `json:"text"`
}

// List returns a review's comments oldest first.
func (h *Comments) List(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := h.parentReview(w, r)
	if !ok {
		return
	}

	comments, err := h.comments.ListByReview(reviewID)
	if err != nil {
		serverError(w, err, "comment list failed")
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	respondJSON(w, http.StatusOK, comments)
}

// Get returns a single comment.
func (h *Comments) Get(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.findComment(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, comment)
}

// Create posts a comment under a review.
func (h *Comments) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if !permissions.CanWriteContent(actor) {
		unauthorized(w)
		return
	}

	reviewID, ok := h.parentReview(w, r)
	if !ok {
		return
	}

	var req commentPayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}
	if req.Text == nil || *req.Text == "" {
		fieldError(w, "text", "this field is required")
		return
	}

	created, err := h.comments.Create(&models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     *req.Text,
	})
	if err != nil {
		serverError(w, err, "comment create failed")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Update modifies a comment's text.
func (h *Comments) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		unauthorized(w)
		return
	}

	comment, ok := h.findComment(w, r)
	if !ok {
		return
	}
	if !permissions.CanModifyContent(actor, comment.AuthorID) {
		forbidden(w)
		return
	}

	var req commentPayload
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}
	if req.Text == nil || *req.Text == "" {
		fieldError(w, "text", "this field is required")
		return
	}

	comment.Text = *req.Text
	updated, err := h.comments.Update(comment)
	if err != nil {
		serverError(w, err, "comment update failed")
		return
	}
	if updated == nil {
		notFound(w, "comment not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes a comment.
func (h *Comments) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromCtx(r.Context())
	if actor == nil {
		unauthorized(w)
		return
	}

	comment, ok := h.findComment(w, r)
	if !ok {
		return
	}
	if !permissions.CanModifyContent(actor, comment.AuthorID) {
		forbidden(w)
		return
	}

	deleted, err := h.comments.Delete(comment.ID)
	if err != nil {
		serverError(w, err, "comment delete failed")
		return
	}
	if !deleted {
		notFound(w, "comment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parentReview checks the title and review URL parameters name an
// existing review under that title.
func (h *Comments) parentReview(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	titleID, err := uuid.Parse(chi.URLParam(r, "titleID"))
	if err != nil {
		notFound(w, "title not found")
		return uuid.Nil, false
	}

	title, err := h.titles.FindByID(titleID)
	if err != nil {
		serverError(w, err, "title lookup failed")
		return uuid.Nil, false
	}
	if title == nil {
		notFound(w, "title not found")
		return uuid.Nil, false
	}

	reviewID, err := uuid.Parse(chi.URLParam(r, "reviewID"))
	if err != nil {
		notFound(w, "review not found")
		return uuid.Nil, false
	}

	review, err := h.reviews.FindByID(reviewID)
	if err != nil {
		serverError(w, err, "review lookup failed")
		return uuid.Nil, false
	}
	if review == nil || review.TitleID != titleID {
		notFound(w, "review not found")
		return uuid.Nil, false
	}
	return reviewID, true
}

// findComment resolves the commentID URL parameter under its review.
func (h *Comments) findComment(w http.ResponseWriter, r *http.Request) (*models.Comment, bool) {
	reviewID, ok := h.parentReview(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		notFound(w, "comment not found")
		return nil, false
	}

	comment, err := h.comments.FindByID(id)
	if err != nil {
		serverError(w, err, "comment lookup failed")
		return nil, false
	}
	if comment == nil || comment.ReviewID != reviewID {
		notFound(w, "comment not found")
		return nil, false
	}
	return comment, true
}
