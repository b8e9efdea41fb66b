package models

import (
	"time"

	"github.com/google/uuid"
)

// Genre tags a title. Titles carry any number of genres. Like Category,
// the slug is the public identity key.
type Genre struct {
	ID        uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"-"`
}
