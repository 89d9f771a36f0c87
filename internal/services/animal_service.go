package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"critterlog/internal/caching"
	"critterlog/internal/models"
	"critterlog/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotOwner is returned when a user acts on an animal they do not own.
var ErrNotOwner = errors.New("you do not have permission to access this animal")

// ErrAnimalNotFound is returned when the referenced animal does not exist.
var ErrAnimalNotFound = errors.New("animal not found")

const animalListCacheTTL = 2 * time.Minute

// AnimalInput carries validated creation/update fields.
type AnimalInput struct {
	Name            string     `json:"name"`
	Species         string     `json:"species"`
	Category        *string    `json:"category"`
	Sex             *string    `json:"sex"`
	Morph           *string    `json:"morph"`
	Breed           *string    `json:"breed"`
	DateOfBirth     *time.Time `json:"dob"`
	AcquisitionDate *time.Time `json:"acquisition_date"`
	Notes           *string    `json:"notes"`
}

// AnimalService owns the collection CRUD, including the entitlement-gated
// create path and ownership checks on every mutation.
type AnimalService interface {
	Create(ctx context.Context, userID uuid.UUID, input *AnimalInput) (*models.Animal, error)
	GetByID(ctx context.Context, userID, animalID uuid.UUID) (*models.Animal, error)
	Update(ctx context.Context, userID, animalID uuid.UUID, input *AnimalInput) (*models.Animal, error)
	Delete(ctx context.Context, userID, animalID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Animal, error)
	UploadPhoto(ctx context.Context, userID, animalID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error)
}

type animalService struct {
	animalRepo     repositories.AnimalRepository
	entitlementSvc EntitlementService
	photoSvc       PhotoStorageService
	cacheSvc       caching.CacheService
}

func NewAnimalService(
	animalRepo repositories.AnimalRepository,
	entitlementSvc EntitlementService,
	photoSvc PhotoStorageService,
	cacheSvc caching.CacheService,
) AnimalService {
	return &animalService{
		animalRepo:     animalRepo,
		entitlementSvc: entitlementSvc,
		photoSvc:       photoSvc,
		cacheSvc:       cacheSvc,
	}
}

// ValidateAnimalInput checks shape constraints and returns a descriptive
// error for the first violation.
func ValidateAnimalInput(input *AnimalInput) error {
	if input.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(input.Name) > 100 {
		return fmt.Errorf("name is too long")
	}
	if input.Species == "" {
		return fmt.Errorf("species is required")
	}
	if len(input.Species) > 100 {
		return fmt.Errorf("species is too long")
	}
	if input.Category != nil && len(*input.Category) > 50 {
		return fmt.Errorf("category is too long")
	}
	if input.Sex != nil {
		switch *input.Sex {
		case "M", "F", "Unknown":
		default:
			return fmt.Errorf("sex must be M, F or Unknown")
		}
	}
	if input.Morph != nil && len(*input.Morph) > 100 {
		return fmt.Errorf("morph is too long")
	}
	if input.Breed != nil && len(*input.Breed) > 100 {
		return fmt.Errorf("breed is too long")
	}
	if input.Notes != nil && len(*input.Notes) > 1000 {
		return fmt.Errorf("notes are too long")
	}
	return nil
}

// Create inserts a new animal. For free-tier users the limit check and the
// insert run as a single conditional statement so two concurrent creates
// cannot both pass a stale count.
func (s *animalService) Create(ctx context.Context, userID uuid.UUID, input *AnimalInput) (*models.Animal, error) {
	if err := ValidateAnimalInput(input); err != nil {
		return nil, err
	}

	animal := &models.Animal{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            input.Name,
		Species:         input.Species,
		Category:        input.Category,
		Sex:             input.Sex,
		Morph:           input.Morph,
		Breed:           input.Breed,
		DateOfBirth:     input.DateOfBirth,
		AcquisitionDate: input.AcquisitionDate,
		Notes:           input.Notes,
	}

	unlimited, err := s.entitlementSvc.Unlimited(ctx, userID)
	if err != nil {
		return nil, err
	}

	if unlimited {
		if err := s.animalRepo.Create(ctx, animal); err != nil {
			return nil, err
		}
	} else {
		inserted, err := s.animalRepo.CreateWithinLimit(ctx, animal, FreeTierAnimalLimit)
		if err != nil {
			return nil, err
		}
		if !inserted {
			return nil, ErrUpgradeRequired
		}
	}

	s.invalidateListCache(ctx, userID)
	return animal, nil
}

func (s *animalService) GetByID(ctx context.Context, userID, animalID uuid.UUID) (*models.Animal, error) {
	animal, err := s.animalRepo.GetByID(ctx, animalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnimalNotFound
		}
		return nil, err
	}
	if animal.UserID != userID {
		return nil, ErrNotOwner
	}
	return animal, nil
}

func (s *animalService) Update(ctx context.Context, userID, animalID uuid.UUID, input *AnimalInput) (*models.Animal, error) {
	if err := ValidateAnimalInput(input); err != nil {
		return nil, err
	}

	animal, err := s.GetByID(ctx, userID, animalID)
	if err != nil {
		return nil, err
	}

	animal.Name = input.Name
	animal.Species = input.Species
	animal.Category = input.Category
	animal.Sex = input.Sex
	animal.Morph = input.Morph
	animal.Breed = input.Breed
	animal.DateOfBirth = input.DateOfBirth
	animal.AcquisitionDate = input.AcquisitionDate
	animal.Notes = input.Notes

	if err := s.animalRepo.Update(ctx, animal); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx, userID)
	return animal, nil
}

func (s *animalService) Delete(ctx context.Context, userID, animalID uuid.UUID) error {
	animal, err := s.GetByID(ctx, userID, animalID)
	if err != nil {
		return err
	}

	if err := s.animalRepo.Delete(ctx, userID, animalID); err != nil {
		return err
	}

	// Best effort: the photo object is orphaned storage, not user data.
	if animal.PhotoURL != nil {
		objectName := fmt.Sprintf("%s/%s", userID.String(), animalID.String())
		if err := s.photoSvc.DeletePhoto(ctx, objectName); err != nil {
			log.Printf("WARN: failed to delete photo for animal %s: %v", animalID.String(), err)
		}
	}

	s.invalidateListCache(ctx, userID)
	return nil
}

func (s *animalService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Animal, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	// Only the first page is cached; it backs the dashboard view.
	if offset == 0 {
		if cached, err := s.cacheSvc.GetAnimalList(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	animals, err := s.animalRepo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	if offset == 0 {
		if err := s.cacheSvc.SetAnimalList(ctx, userID, animals, animalListCacheTTL); err != nil {
			log.Printf("WARN: failed to cache animal list for user %s: %v", userID.String(), err)
		}
	}
	return animals, nil
}

func (s *animalService) UploadPhoto(ctx context.Context, userID, animalID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error) {
	if _, err := s.GetByID(ctx, userID, animalID); err != nil {
		return "", err
	}

	if err := s.photoSvc.EnsureBucketExists(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	objectName := fmt.Sprintf("%s/%s", userID.String(), animalID.String())
	photoURL, err := s.photoSvc.UploadPhoto(ctx, objectName, reader, size, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %v", err)
	}

	if err := s.animalRepo.SetPhotoURL(ctx, userID, animalID, photoURL); err != nil {
		return "", err
	}

	s.invalidateListCache(ctx, userID)
	return photoURL, nil
}

func (s *animalService) invalidateListCache(ctx context.Context, userID uuid.UUID) {
	if err := s.cacheSvc.DeleteAnimalList(ctx, userID); err != nil {
		log.Printf("WARN: failed to invalidate animal list cache for user %s: %v", userID.String(), err)
	}
}
