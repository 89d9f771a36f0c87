package repositories

import (
	"context"

	"critterlog/internal/models"

	"github.com/google/uuid"
)

type CareEventRepository interface {
	Create(ctx context.Context, event *models.CareEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CareEvent, error)
	ListByAnimal(ctx context.Context, animalID uuid.UUID, limit, offset int) ([]*models.CareEvent, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type careEventRepo struct {
	db Database
}

func NewCareEventRepo(db Database) CareEventRepository {
	return &careEventRepo{db: db}
}

func (r *careEventRepo) Create(ctx context.Context, event *models.CareEvent) error {
	query := `
		INSERT INTO care_events (id, user_id, animal_id, type, title, description, happened_on, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, event.ID, event.UserID, event.AnimalID, event.Type, event.Title, event.Description, event.HappenedOn, event.Details)
	return err
}

func (r *careEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CareEvent, error) {
	event := &models.CareEvent{}
	query := `
		SELECT id, user_id, animal_id, type, title, description, happened_on, details, created_at
		FROM care_events
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&event.ID, &event.UserID, &event.AnimalID, &event.Type, &event.Title, &event.Description, &event.HappenedOn, &event.Details, &event.CreatedAt)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ListByAnimal returns events most recent first.
func (r *careEventRepo) ListByAnimal(ctx context.Context, animalID uuid.UUID, limit, offset int) ([]*models.CareEvent, error) {
	query := `
		SELECT id, user_id, animal_id, type, title, description, happened_on, details, created_at
		FROM care_events
		WHERE animal_id = $1
		ORDER BY happened_on DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, animalID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.CareEvent
	for rows.Next() {
		event := &models.CareEvent{}
		if err := rows.Scan(&event.ID, &event.UserID, &event.AnimalID, &event.Type, &event.Title, &event.Description, &event.HappenedOn, &event.Details, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *careEventRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM care_events WHERE user_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, userID, id)
	return err
}
