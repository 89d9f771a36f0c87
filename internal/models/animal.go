package models

import (
	"time"

	"github.com/google/uuid"
)

// Animal is a single entry in a user's collection. Optional descriptive
// fields are pointers so the JSON API can distinguish unset from empty.
type Animal struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	Name            string     `json:"name" db:"name"`
	Species         string     `json:"species" db:"species"`
	Category        *string    `json:"category" db:"category"`
	Sex             *string    `json:"sex" db:"sex"` // M, F or Unknown
	Morph           *string    `json:"morph" db:"morph"`
	Breed           *string    `json:"breed" db:"breed"`
	DateOfBirth     *time.Time `json:"dob" db:"dob"`
	AcquisitionDate *time.Time `json:"acquisition_date" db:"acquisition_date"`
	Notes           *string    `json:"notes" db:"notes"`
	PhotoURL        *string    `json:"photo_url" db:"photo_url"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
