package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a scored write-up of a title. The schema enforces at most one
// review per (title, author) pair; deleting the title or the author
// cascades to the review.
type Review struct {
	ID       uuid.UUID `json:"id"`
	TitleID  uuid.UUID `json:"-"`
	AuthorID uuid.UUID `json:"-"`
	Text     string    `json:"text"`
	Score    int       `json:"score"`
	PubDate  time.Time `json:"pub_date"`

	// Author username, joined in by read queries.
	Author string `json:"author"`
}
