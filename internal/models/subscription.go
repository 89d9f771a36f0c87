package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the internal projection of the billing provider's
// subscription state. The stored record is a cache of Stripe's view;
// the webhook stream stays authoritative.
type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusPastDue  PlanStatus = "past_due"
	PlanStatusCanceled PlanStatus = "canceled"
	PlanStatusNone     PlanStatus = "none"
)

// Subscription is the single entitlement row per user, upserted on every
// webhook reconciliation. Absence of a row means PlanStatusNone.
type Subscription struct {
	UserID               uuid.UUID  `json:"user_id" db:"user_id"`
	StripeCustomerID     *string    `json:"stripe_customer_id" db:"stripe_customer_id"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id" db:"stripe_subscription_id"`
	Status               PlanStatus `json:"status" db:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end" db:"current_period_end"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// IsPro reports whether the plan grants unlimited collection size.
func (s *Subscription) IsPro() bool {
	return s.Status == PlanStatusActive
}

// DefaultSubscription is the record implied by a missing row.
func DefaultSubscription(userID uuid.UUID) *Subscription {
	return &Subscription{
		UserID: userID,
		Status: PlanStatusNone,
	}
}
