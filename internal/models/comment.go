package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is free text attached to a review. Deleting the review or the
// author cascades to the comment.
type Comment struct {
	ID       uuid.UUID `json:"id"`
	ReviewID uuid.UUID `json:"-"`
	AuthorID uuid.UUID `json:"-"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pub_date"`

	// Author username, joined in by read queries.
	Author string `json:"author"`
}
