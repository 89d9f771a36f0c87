package repositories

import (
	"context"

	"critterlog/internal/models"

	"github.com/google/uuid"
)

type AnimalRepository interface {
	Create(ctx context.Context, animal *models.Animal) error
	// CreateWithinLimit inserts only while the owner's animal count stays
	// below limit. The count check and the insert run as one statement so
	// concurrent creates cannot both slip past a stale count. Returns false
	// when the limit blocked the insert.
	CreateWithinLimit(ctx context.Context, animal *models.Animal, limit int) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Animal, error)
	Update(ctx context.Context, animal *models.Animal) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Animal, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	SetPhotoURL(ctx context.Context, userID, id uuid.UUID, photoURL string) error
}

type animalRepo struct {
	db Database
}

func NewAnimalRepo(db Database) AnimalRepository {
	return &animalRepo{db: db}
}

func (r *animalRepo) Create(ctx context.Context, animal *models.Animal) error {
	query := `
		INSERT INTO animals (id, user_id, name, species, category, sex, morph, breed, dob, acquisition_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, animal.ID, animal.UserID, animal.Name, animal.Species, animal.Category, animal.Sex, animal.Morph, animal.Breed, animal.DateOfBirth, animal.AcquisitionDate, animal.Notes)
	return err
}

func (r *animalRepo) CreateWithinLimit(ctx context.Context, animal *models.Animal, limit int) (bool, error) {
	query := `
		INSERT INTO animals (id, user_id, name, species, category, sex, morph, breed, dob, acquisition_date, notes, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		WHERE (SELECT COUNT(*) FROM animals WHERE user_id = $2) < $12
	`
	tag, err := r.db.Exec(ctx, query, animal.ID, animal.UserID, animal.Name, animal.Species, animal.Category, animal.Sex, animal.Morph, animal.Breed, animal.DateOfBirth, animal.AcquisitionDate, animal.Notes, limit)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *animalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Animal, error) {
	animal := &models.Animal{}
	query := `
		SELECT id, user_id, name, species, category, sex, morph, breed, dob, acquisition_date, notes, photo_url, created_at, updated_at
		FROM animals
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&animal.ID, &animal.UserID, &animal.Name, &animal.Species, &animal.Category, &animal.Sex, &animal.Morph, &animal.Breed, &animal.DateOfBirth, &animal.AcquisitionDate, &animal.Notes, &animal.PhotoURL, &animal.CreatedAt, &animal.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return animal, nil
}

func (r *animalRepo) Update(ctx context.Context, animal *models.Animal) error {
	query := `
		UPDATE animals
		SET name = $1, species = $2, category = $3, sex = $4, morph = $5, breed = $6, dob = $7, acquisition_date = $8, notes = $9, updated_at = NOW()
		WHERE user_id = $10 AND id = $11
	`
	_, err := r.db.Exec(ctx, query, animal.Name, animal.Species, animal.Category, animal.Sex, animal.Morph, animal.Breed, animal.DateOfBirth, animal.AcquisitionDate, animal.Notes, animal.UserID, animal.ID)
	return err
}

// Delete removes the animal; care events go with it via ON DELETE CASCADE.
func (r *animalRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM animals WHERE user_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, userID, id)
	return err
}

func (r *animalRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Animal, error) {
	query := `
		SELECT id, user_id, name, species, category, sex, morph, breed, dob, acquisition_date, notes, photo_url, created_at, updated_at
		FROM animals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var animals []*models.Animal
	for rows.Next() {
		animal := &models.Animal{}
		if err := rows.Scan(&animal.ID, &animal.UserID, &animal.Name, &animal.Species, &animal.Category, &animal.Sex, &animal.Morph, &animal.Breed, &animal.DateOfBirth, &animal.AcquisitionDate, &animal.Notes, &animal.PhotoURL, &animal.CreatedAt, &animal.UpdatedAt); err != nil {
			return nil, err
		}
		animals = append(animals, animal)
	}
	return animals, rows.Err()
}

func (r *animalRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM animals WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	return count, err
}

func (r *animalRepo) SetPhotoURL(ctx context.Context, userID, id uuid.UUID, photoURL string) error {
	query := `UPDATE animals SET photo_url = $1, updated_at = NOW() WHERE user_id = $2 AND id = $3`
	_, err := r.db.Exec(ctx, query, photoURL, userID, id)
	return err
}
