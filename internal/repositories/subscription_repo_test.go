package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"critterlog/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type SubscriptionRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    SubscriptionRepository
	userID  uuid.UUID
	context context.Context
}

func (suite *SubscriptionRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewSubscriptionRepo(mock)
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *SubscriptionRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestSubscriptionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionRepoTestSuite))
}

func (suite *SubscriptionRepoTestSuite) TestGet_Success() {
	customerID := "cus_123"
	subscriptionID := "sub_123"
	periodStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`
			SELECT user_id, stripe_customer_id, stripe_subscription_id, status, current_period_start, current_period_end, updated_at
			FROM subscriptions
			WHERE user_id = \$1
		`).WithArgs(suite.userID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "stripe_customer_id", "stripe_subscription_id", "status", "current_period_start", "current_period_end", "updated_at"}).
			AddRow(suite.userID, &customerID, &subscriptionID, models.PlanStatusActive, &periodStart, &periodEnd, updatedAt))

	result, err := suite.repo.Get(suite.context, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.userID, result.UserID)
	assert.Equal(suite.T(), models.PlanStatusActive, result.Status)
	assert.Equal(suite.T(), customerID, *result.StripeCustomerID)
	assert.Equal(suite.T(), subscriptionID, *result.StripeSubscriptionID)
}

// A user with no row is a valid state: status none, no error.
func (suite *SubscriptionRepoTestSuite) TestGet_NoRowDefaultsToNone() {
	suite.mock.ExpectQuery(`
			SELECT user_id, stripe_customer_id, stripe_subscription_id, status, current_period_start, current_period_end, updated_at
			FROM subscriptions
			WHERE user_id = \$1
		`).WithArgs(suite.userID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "stripe_customer_id", "stripe_subscription_id", "status", "current_period_start", "current_period_end", "updated_at"}))

	result, err := suite.repo.Get(suite.context, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.userID, result.UserID)
	assert.Equal(suite.T(), models.PlanStatusNone, result.Status)
	assert.Nil(suite.T(), result.StripeCustomerID)
}

func (suite *SubscriptionRepoTestSuite) TestGet_DatabaseError() {
	suite.mock.ExpectQuery(`
			SELECT user_id, stripe_customer_id, stripe_subscription_id, status, current_period_start, current_period_end, updated_at
			FROM subscriptions
			WHERE user_id = \$1
		`).WithArgs(suite.userID).
		WillReturnError(errors.New("database connection failed"))

	result, err := suite.repo.Get(suite.context, suite.userID)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), result)
}

func (suite *SubscriptionRepoTestSuite) TestUpsert_Insert() {
	customerID := "cus_123"
	subscriptionID := "sub_123"
	periodEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	subscription := &models.Subscription{
		UserID:               suite.userID,
		StripeCustomerID:     &customerID,
		StripeSubscriptionID: &subscriptionID,
		Status:               models.PlanStatusActive,
		CurrentPeriodEnd:     &periodEnd,
	}

	suite.mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(subscription.UserID, subscription.StripeCustomerID, subscription.StripeSubscriptionID, subscription.Status, subscription.CurrentPeriodStart, subscription.CurrentPeriodEnd).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Upsert(suite.context, subscription)
	assert.NoError(suite.T(), err)
}

// Replaying the same upsert twice succeeds both times: the conflict path
// rewrites the row instead of erroring.
func (suite *SubscriptionRepoTestSuite) TestUpsert_ConflictUpdates() {
	customerID := "cus_123"
	subscriptionID := "sub_123"
	subscription := &models.Subscription{
		UserID:               suite.userID,
		StripeCustomerID:     &customerID,
		StripeSubscriptionID: &subscriptionID,
		Status:               models.PlanStatusPastDue,
	}

	suite.mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(subscription.UserID, subscription.StripeCustomerID, subscription.StripeSubscriptionID, subscription.Status, subscription.CurrentPeriodStart, subscription.CurrentPeriodEnd).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(subscription.UserID, subscription.StripeCustomerID, subscription.StripeSubscriptionID, subscription.Status, subscription.CurrentPeriodStart, subscription.CurrentPeriodEnd).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.Upsert(suite.context, subscription))
	assert.NoError(suite.T(), suite.repo.Upsert(suite.context, subscription))
}

func (suite *SubscriptionRepoTestSuite) TestListExpiredActive() {
	customerID := "cus_123"
	subscriptionID := "sub_123"
	periodStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`
			SELECT user_id, stripe_customer_id, stripe_subscription_id, status, current_period_start, current_period_end, updated_at
			FROM subscriptions
			WHERE status = \$1 AND current_period_end IS NOT NULL AND current_period_end < NOW\(\)
		`).WithArgs(models.PlanStatusActive, 100).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "stripe_customer_id", "stripe_subscription_id", "status", "current_period_start", "current_period_end", "updated_at"}).
			AddRow(suite.userID, &customerID, &subscriptionID, models.PlanStatusActive, &periodStart, &periodEnd, updatedAt))

	results, err := suite.repo.ListExpiredActive(suite.context, 100)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), results, 1)
	assert.Equal(suite.T(), suite.userID, results[0].UserID)
}
