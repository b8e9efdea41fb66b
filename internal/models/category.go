package models

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a title (book, film, music, ...). The slug is the
// identity key used in URLs; the internal ID never leaves the API.
type Category struct {
	ID        uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"-"`
}
