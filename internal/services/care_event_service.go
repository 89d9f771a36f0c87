package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"critterlog/internal/models"
	"critterlog/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrEventNotFound is returned when the referenced care event does not exist.
var ErrEventNotFound = errors.New("care event not found")

// CareEventInput carries a new event before validation.
type CareEventInput struct {
	Type        models.EventType       `json:"type"`
	Title       string                 `json:"title"`
	Description *string                `json:"description"`
	HappenedOn  time.Time              `json:"happened_on"`
	Details     map[string]interface{} `json:"details"`
}

// CareEventService logs husbandry events against owned animals.
type CareEventService interface {
	Create(ctx context.Context, userID, animalID uuid.UUID, input *CareEventInput) (*models.CareEvent, error)
	ListByAnimal(ctx context.Context, userID, animalID uuid.UUID, limit, offset int) ([]*models.CareEvent, error)
	Delete(ctx context.Context, userID, eventID uuid.UUID) error
}

type careEventService struct {
	eventRepo repositories.CareEventRepository
	animalSvc AnimalService
}

func NewCareEventService(eventRepo repositories.CareEventRepository, animalSvc AnimalService) CareEventService {
	return &careEventService{
		eventRepo: eventRepo,
		animalSvc: animalSvc,
	}
}

// ValidateEventDetails checks the type-specific detail payload. The switch is
// closed over the known event types; an unknown type is a validation error,
// never a silent fallthrough.
func ValidateEventDetails(eventType models.EventType, details map[string]interface{}) error {
	switch eventType {
	case models.EventTypeFeeding:
		if stringField(details, "prey") == "" {
			return fmt.Errorf("prey type is required")
		}
		if stringField(details, "amount") == "" {
			return fmt.Errorf("amount is required")
		}
	case models.EventTypeWeight:
		grams, ok := numberField(details, "grams")
		if !ok || grams <= 0 {
			return fmt.Errorf("weight must be greater than 0")
		}
	case models.EventTypeMedical:
		if stringField(details, "treatment") == "" {
			return fmt.Errorf("treatment is required")
		}
	case models.EventTypeMolt:
		switch stringField(details, "stage") {
		case "pre_molt", "in_molt", "post_molt", "complete":
		default:
			return fmt.Errorf("stage must be one of pre_molt, in_molt, post_molt, complete")
		}
	case models.EventTypeShedding:
		if quality := stringField(details, "quality"); quality != "" {
			switch quality {
			case "complete", "incomplete", "stuck_shed":
			default:
				return fmt.Errorf("quality must be one of complete, incomplete, stuck_shed")
			}
		}
	case models.EventTypeBreeding:
		switch stringField(details, "result") {
		case "successful", "unsuccessful", "pending", "eggs_laid", "eggs_fertile", "eggs_infertile":
		default:
			return fmt.Errorf("result must be a valid breeding outcome")
		}
		if eggs, ok := numberField(details, "eggs"); ok && eggs < 0 {
			return fmt.Errorf("eggs must not be negative")
		}
	case models.EventTypeOther:
		if stringField(details, "title") == "" {
			return fmt.Errorf("title is required")
		}
	default:
		return fmt.Errorf("unknown event type: %s", eventType)
	}
	return nil
}

func stringField(details map[string]interface{}, key string) string {
	if details == nil {
		return ""
	}
	value, _ := details[key].(string)
	return value
}

func numberField(details map[string]interface{}, key string) (float64, bool) {
	if details == nil {
		return 0, false
	}
	switch v := details[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func (s *careEventService) Create(ctx context.Context, userID, animalID uuid.UUID, input *CareEventInput) (*models.CareEvent, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if err := ValidateEventDetails(input.Type, input.Details); err != nil {
		return nil, err
	}

	// Ownership check rides on the animal lookup.
	if _, err := s.animalSvc.GetByID(ctx, userID, animalID); err != nil {
		return nil, err
	}

	happenedOn := input.HappenedOn
	if happenedOn.IsZero() {
		happenedOn = time.Now().UTC()
	}

	event := &models.CareEvent{
		ID:          uuid.New(),
		UserID:      userID,
		AnimalID:    animalID,
		Type:        input.Type,
		Title:       input.Title,
		Description: input.Description,
		HappenedOn:  happenedOn,
		Details:     input.Details,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *careEventService) ListByAnimal(ctx context.Context, userID, animalID uuid.UUID, limit, offset int) ([]*models.CareEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.animalSvc.GetByID(ctx, userID, animalID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByAnimal(ctx, animalID, limit, offset)
}

// Delete refuses events the caller does not own; a delete that matches
// nothing is reported, never silently acknowledged.
func (s *careEventService) Delete(ctx context.Context, userID, eventID uuid.UUID) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEventNotFound
		}
		return err
	}
	if event.UserID != userID {
		return ErrNotOwner
	}
	return s.eventRepo.Delete(ctx, userID, eventID)
}
