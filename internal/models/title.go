package models

import (
	"time"

	"github.com/google/uuid"
)

// Title is a reviewable creative work. The category is optional and
// survives category deletion (the FK is SET NULL); genres are a
// many-to-many association.
type Title struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Year        int        `json:"year"`
	Description *string    `json:"description"`
	CategoryID  *uuid.UUID `json:"-"`
	CreatedAt   time.Time  `json:"-"`

	// Populated by read queries, never stored.
	Category *Category `json:"category"`
	Genres   []Genre   `json:"genre"`

	// Rating is the arithmetic mean of review scores, recomputed on every
	// read. Nil when the title has no reviews, never zero.
	Rating *float64 `json:"rating"`
}
