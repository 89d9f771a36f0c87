package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the care event categories a keeper can log.
type EventType string

const (
	EventTypeFeeding  EventType = "feeding"
	EventTypeWeight   EventType = "weight"
	EventTypeMedical  EventType = "medical"
	EventTypeMolt     EventType = "molt"
	EventTypeShedding EventType = "shedding"
	EventTypeBreeding EventType = "breeding"
	EventTypeOther    EventType = "other"
)

// CareEvent is one logged husbandry event for an animal. Details carries the
// type-specific payload (validated per type before insert) stored as JSONB.
type CareEvent struct {
	ID          uuid.UUID              `json:"id" db:"id"`
	UserID      uuid.UUID              `json:"user_id" db:"user_id"`
	AnimalID    uuid.UUID              `json:"animal_id" db:"animal_id"`
	Type        EventType              `json:"type" db:"type"`
	Title       string                 `json:"title" db:"title"`
	Description *string                `json:"description" db:"description"`
	HappenedOn  time.Time              `json:"happened_on" db:"happened_on"`
	Details     map[string]interface{} `json:"details" db:"details"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
}
