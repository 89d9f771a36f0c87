package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"critterlog/internal/caching"
	"critterlog/internal/models"
	"critterlog/internal/repositories"

	"github.com/google/uuid"
)

// EventKind is the closed set of webhook event families the reconciler
// understands. Anything outside it is acknowledged and ignored so Stripe
// never retries events this system does not handle.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutCompleted
	EventSubscriptionChanged // created / updated / deleted
	EventInvoicePaymentSucceeded
	EventInvoicePaymentFailed
)

// ClassifyEvent maps a Stripe event type string onto the closed EventKind set.
func ClassifyEvent(eventType string) EventKind {
	switch eventType {
	case "checkout.session.completed":
		return EventCheckoutCompleted
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		return EventSubscriptionChanged
	case "invoice.payment_succeeded":
		return EventInvoicePaymentSucceeded
	case "invoice.payment_failed":
		return EventInvoicePaymentFailed
	default:
		return EventUnknown
	}
}

// MapStripeStatus maps Stripe's subscription lifecycle status onto the
// internal plan status. Total: every input, including unknown ones, maps to
// exactly one of the four statuses.
func MapStripeStatus(stripeStatus string) models.PlanStatus {
	switch stripeStatus {
	case "active":
		return models.PlanStatusActive
	case "past_due":
		return models.PlanStatusPastDue
	case "canceled", "incomplete", "incomplete_expired", "unpaid":
		return models.PlanStatusCanceled
	default:
		return models.PlanStatusNone
	}
}

const subscriptionCacheTTL = 5 * time.Minute

// SubscriptionService reconciles billing webhook events into the local
// entitlement store and serves entitlement reads.
type SubscriptionService interface {
	// HandleWebhookEvent processes one verified webhook delivery. A nil
	// return acknowledges the event (including deliberate no-ops); an error
	// means infrastructure trouble and the sender should redeliver.
	HandleWebhookEvent(ctx context.Context, event *StripeEvent) error
	// GetEntitlement returns the user's current subscription record,
	// defaulting to status none when the user never subscribed.
	GetEntitlement(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	CreateCheckout(ctx context.Context, userID uuid.UUID, email string) (string, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
	stripeSvc        StripeService
	cacheSvc         caching.CacheService
}

// NewSubscriptionService creates a new SubscriptionService instance.
func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
	stripeSvc StripeService,
	cacheSvc caching.CacheService,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		stripeSvc:        stripeSvc,
		cacheSvc:         cacheSvc,
	}
}

func (s *subscriptionService) HandleWebhookEvent(ctx context.Context, event *StripeEvent) error {
	switch ClassifyEvent(event.Type) {
	case EventSubscriptionChanged:
		var subscription StripeSubscription
		if err := json.Unmarshal(event.Data.Object, &subscription); err != nil {
			return fmt.Errorf("failed to decode subscription object: %v", err)
		}
		return s.reconcileSubscription(ctx, &subscription)

	case EventCheckoutCompleted:
		var session CheckoutSessionObject
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return fmt.Errorf("failed to decode checkout session object: %v", err)
		}
		if session.Subscription == "" {
			// One-off payment sessions carry no subscription; nothing to do.
			return nil
		}
		subscription, err := s.stripeSvc.GetSubscription(ctx, session.Subscription)
		if err != nil {
			return fmt.Errorf("failed to fetch subscription %s: %v", session.Subscription, err)
		}
		// Prefer the session metadata; the subscription may not carry it.
		if subscription.Metadata["userId"] == "" && session.Metadata["userId"] != "" {
			if subscription.Metadata == nil {
				subscription.Metadata = map[string]string{}
			}
			subscription.Metadata["userId"] = session.Metadata["userId"]
		}
		return s.reconcileSubscription(ctx, subscription)

	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		var invoice InvoiceObject
		if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
			return fmt.Errorf("failed to decode invoice object: %v", err)
		}
		if invoice.Subscription == "" {
			return nil
		}
		// Re-fetch the subscription so the stored row reflects Stripe's own
		// post-payment status rather than anything inferred from the invoice.
		subscription, err := s.stripeSvc.GetSubscription(ctx, invoice.Subscription)
		if err != nil {
			return fmt.Errorf("failed to fetch subscription %s: %v", invoice.Subscription, err)
		}
		return s.reconcileSubscription(ctx, subscription)

	case EventUnknown:
		log.Printf("Ignoring unhandled webhook event type %q (id=%s)", event.Type, event.ID)
		return nil
	}
	return nil
}

// reconcileSubscription resolves the affected user, maps the external status
// and upserts the entitlement row. The upsert is derived solely from the
// event payload, never from the stored row, so redelivery converges.
func (s *subscriptionService) reconcileSubscription(ctx context.Context, subscription *StripeSubscription) error {
	userID, ok, err := s.resolveUser(ctx, subscription)
	if err != nil {
		return err
	}
	if !ok {
		// Billing events can reference users not yet provisioned. Failing
		// here would make Stripe retry forever, so acknowledge and move on.
		log.Printf("WARN: could not resolve user for subscription %s (customer %s); event skipped", subscription.ID, subscription.Customer)
		return nil
	}

	record := &models.Subscription{
		UserID:               userID,
		StripeCustomerID:     &subscription.Customer,
		StripeSubscriptionID: &subscription.ID,
		Status:               MapStripeStatus(subscription.Status),
	}
	if subscription.CurrentPeriodStart > 0 {
		start := time.Unix(subscription.CurrentPeriodStart, 0).UTC()
		record.CurrentPeriodStart = &start
	}
	if subscription.CurrentPeriodEnd > 0 {
		end := time.Unix(subscription.CurrentPeriodEnd, 0).UTC()
		record.CurrentPeriodEnd = &end
	}

	if err := s.subscriptionRepo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert subscription: %v", err)
	}

	// Invalidate only after the upsert commits so the next read is fresh.
	if err := s.cacheSvc.InvalidateUserCache(ctx, userID); err != nil {
		log.Printf("WARN: cache invalidation failed for user %s: %v", userID.String(), err)
	}
	return nil
}

// resolveUser finds the internal user a billing event refers to:
// subscription metadata first, then the customer's metadata, then the
// customer's email matched against the user directory.
func (s *subscriptionService) resolveUser(ctx context.Context, subscription *StripeSubscription) (uuid.UUID, bool, error) {
	if raw := subscription.Metadata["userId"]; raw != "" {
		userID, err := uuid.Parse(raw)
		if err == nil {
			return userID, true, nil
		}
		log.Printf("WARN: malformed userId metadata %q on subscription %s", raw, subscription.ID)
	}

	if subscription.Customer == "" {
		return uuid.Nil, false, nil
	}

	customer, err := s.stripeSvc.GetCustomer(ctx, subscription.Customer)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to fetch customer %s: %v", subscription.Customer, err)
	}

	if raw := customer.Metadata["userId"]; raw != "" {
		if userID, err := uuid.Parse(raw); err == nil {
			return userID, true, nil
		}
		log.Printf("WARN: malformed userId metadata %q on customer %s", customer.Metadata["userId"], customer.ID)
	}

	if customer.Email != "" {
		user, err := s.userRepo.FindByEmail(ctx, customer.Email)
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("failed to look up user by email: %v", err)
		}
		if user != nil {
			return user.ID, true, nil
		}
	}

	return uuid.Nil, false, nil
}

func (s *subscriptionService) GetEntitlement(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if cached, err := s.cacheSvc.GetSubscription(ctx, userID); err == nil && cached != nil {
		return cached, nil
	}

	subscription, err := s.subscriptionRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetSubscription(ctx, subscription, subscriptionCacheTTL); err != nil {
		log.Printf("WARN: failed to cache subscription for user %s: %v", userID.String(), err)
	}
	return subscription, nil
}

func (s *subscriptionService) CreateCheckout(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	session, err := s.stripeSvc.CreateCheckoutSession(ctx, userID, email)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %v", err)
	}
	return session.URL, nil
}
