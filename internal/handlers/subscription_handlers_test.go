package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"critterlog/internal/common"
	"critterlog/internal/models"
	"critterlog/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockEntitlementService struct {
	mock.Mock
}

func (m *MockEntitlementService) CanAddAnimal(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockEntitlementService) Unlimited(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// SubscriptionHandlersTestSuite defines the test suite
type SubscriptionHandlersTestSuite struct {
	suite.Suite
	mockSubscriptionSvc *MockSubscriptionService
	mockEntitlementSvc  *MockEntitlementService
	handlers            *SubscriptionHandlers
	echo                *echo.Echo
	userID              uuid.UUID
}

func (suite *SubscriptionHandlersTestSuite) SetupTest() {
	suite.mockSubscriptionSvc = &MockSubscriptionService{}
	suite.mockEntitlementSvc = &MockEntitlementService{}
	suite.handlers = NewSubscriptionHandlers(suite.mockSubscriptionSvc, suite.mockEntitlementSvc)
	suite.echo = echo.New()
	suite.userID = uuid.New()
}

func (suite *SubscriptionHandlersTestSuite) TearDownTest() {
	suite.mockSubscriptionSvc.AssertExpectations(suite.T())
	suite.mockEntitlementSvc.AssertExpectations(suite.T())
}

func TestSubscriptionHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionHandlersTestSuite))
}

func (suite *SubscriptionHandlersTestSuite) authedContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(context.WithValue(req.Context(), common.UserIDKey, suite.userID))
	rec := httptest.NewRecorder()
	return suite.echo.NewContext(req, rec), rec
}

func (suite *SubscriptionHandlersTestSuite) TestGetSubscription_FreeUserUnderLimit() {
	c, rec := suite.authedContext(http.MethodGet, "/v1/billing/subscription", "")

	subscription := &models.Subscription{UserID: suite.userID, Status: models.PlanStatusNone}
	suite.mockSubscriptionSvc.On("GetEntitlement", mock.Anything, suite.userID).Return(subscription, nil).Once()
	suite.mockEntitlementSvc.On("CanAddAnimal", mock.Anything, suite.userID).Return(nil).Once()

	err := suite.handlers.GetSubscription(c)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var response map[string]interface{}
	assert.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(suite.T(), true, response["can_add_animal"])
}

func (suite *SubscriptionHandlersTestSuite) TestGetSubscription_FreeUserAtLimit() {
	c, rec := suite.authedContext(http.MethodGet, "/v1/billing/subscription", "")

	subscription := &models.Subscription{UserID: suite.userID, Status: models.PlanStatusNone}
	suite.mockSubscriptionSvc.On("GetEntitlement", mock.Anything, suite.userID).Return(subscription, nil).Once()
	suite.mockEntitlementSvc.On("CanAddAnimal", mock.Anything, suite.userID).Return(services.ErrUpgradeRequired).Once()

	err := suite.handlers.GetSubscription(c)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var response map[string]interface{}
	assert.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(suite.T(), false, response["can_add_animal"])
}

func (suite *SubscriptionHandlersTestSuite) TestGetSubscription_GateLookupFailure() {
	c, _ := suite.authedContext(http.MethodGet, "/v1/billing/subscription", "")

	subscription := &models.Subscription{UserID: suite.userID, Status: models.PlanStatusNone}
	suite.mockSubscriptionSvc.On("GetEntitlement", mock.Anything, suite.userID).Return(subscription, nil).Once()
	suite.mockEntitlementSvc.On("CanAddAnimal", mock.Anything, suite.userID).Return(assert.AnError).Once()

	err := suite.handlers.GetSubscription(c)

	httpErr, ok := err.(*echo.HTTPError)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), http.StatusInternalServerError, httpErr.Code)
}
