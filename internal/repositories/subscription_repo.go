package repositories

import (
	"context"
	"errors"

	"critterlog/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SubscriptionRepository persists the per-user entitlement projection.
// At most one row per user; the row is replaced wholesale on every upsert.
type SubscriptionRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	Upsert(ctx context.Context, subscription *models.Subscription) error
	// ListExpiredActive returns rows still marked active whose billing period
	// has ended. Read-only; used for operator drift reporting.
	ListExpiredActive(ctx context.Context, limit int) ([]*models.Subscription, error)
}

type subscriptionRepo struct {
	db Database
}

func NewSubscriptionRepo(db Database) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

// Get returns the stored record, or a default status=none record when no row
// exists. A missing row is not an error: it means the user never subscribed.
func (r *subscriptionRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	subscription := &models.Subscription{}
	query := `
		SELECT user_id, stripe_customer_id, stripe_subscription_id, status, current_period_start, current_period_end, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&subscription.UserID,
		&subscription.StripeCustomerID,
		&subscription.StripeSubscriptionID,
		&subscription.Status,
		&subscription.CurrentPeriodStart,
		&subscription.CurrentPeriodEnd,
		&subscription.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DefaultSubscription(userID), nil
		}
		return nil, err
	}
	return subscription, nil
}

// Upsert replaces the full row keyed by user_id. Repeated application of the
// same event converges to the same stored state.
func (r *subscriptionRepo) Upsert(ctx context.Context, subscription *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, stripe_customer_id, stripe_subscription_id, status, current_period_start, current_period_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET stripe_customer_id = EXCLUDED.stripe_customer_id,
		    stripe_subscription_id = EXCLUDED.stripe_subscription_id,
		    status = EXCLUDED.status,
		    current_period_start = EXCLUDED.current_period_start,
		    current_period_end = EXCLUDED.current_period_end,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		subscription.UserID,
		subscription.StripeCustomerID,
		subscription.StripeSubscriptionID,
		subscription.Status,
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
	)
	return err
}

func (r *subscriptionRepo) ListExpiredActive(ctx context.Context, limit int) ([]*models.Subscription, error) {
	query := `
		SELECT user_id, stripe_customer_id, stripe_subscription_id, status, current_period_start, current_period_end, updated_at
		FROM subscriptions
		WHERE status = $1 AND current_period_end IS NOT NULL AND current_period_end < NOW()
		ORDER BY current_period_end ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, models.PlanStatusActive, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscriptions []*models.Subscription
	for rows.Next() {
		subscription := &models.Subscription{}
		if err := rows.Scan(
			&subscription.UserID,
			&subscription.StripeCustomerID,
			&subscription.StripeSubscriptionID,
			&subscription.Status,
			&subscription.CurrentPeriodStart,
			&subscription.CurrentPeriodEnd,
			&subscription.UpdatedAt,
		); err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, subscription)
	}
	return subscriptions, rows.Err()
}
