package services

import (
	"context"
	"errors"

	"critterlog/internal/repositories"

	"github.com/google/uuid"
)

// FreeTierAnimalLimit is the maximum collection size on the free plan.
const FreeTierAnimalLimit = 5

// ErrUpgradeRequired is returned when a gated action is denied because the
// free-tier limit is reached. Callers surface it as an upgrade prompt, not a
// generic error.
var ErrUpgradeRequired = errors.New("free plan limit reached, upgrade required")

// EntitlementService decides whether gated actions are permitted given the
// user's plan status and current usage. Reads usage fresh on every check;
// the atomic enforcement on the create path lives in the animal repository.
type EntitlementService interface {
	// CanAddAnimal reports whether the user may add another animal right
	// now. Returns ErrUpgradeRequired on denial.
	CanAddAnimal(ctx context.Context, userID uuid.UUID) error
	// Unlimited reports whether the user's plan lifts the free-tier limit.
	Unlimited(ctx context.Context, userID uuid.UUID) (bool, error)
}

type entitlementService struct {
	subscriptionSvc SubscriptionService
	animalRepo      repositories.AnimalRepository
}

func NewEntitlementService(subscriptionSvc SubscriptionService, animalRepo repositories.AnimalRepository) EntitlementService {
	return &entitlementService{
		subscriptionSvc: subscriptionSvc,
		animalRepo:      animalRepo,
	}
}

func (s *entitlementService) Unlimited(ctx context.Context, userID uuid.UUID) (bool, error) {
	subscription, err := s.subscriptionSvc.GetEntitlement(ctx, userID)
	if err != nil {
		return false, err
	}
	return subscription.IsPro(), nil
}

func (s *entitlementService) CanAddAnimal(ctx context.Context, userID uuid.UUID) error {
	unlimited, err := s.Unlimited(ctx, userID)
	if err != nil {
		return err
	}
	if unlimited {
		return nil
	}

	count, err := s.animalRepo.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count >= FreeTierAnimalLimit {
		return ErrUpgradeRequired
	}
	return nil
}
