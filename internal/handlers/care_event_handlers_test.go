package handlers

import (
	"context"
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

type MockCareEventService struct {
	mock.Mock
}

func (m *MockCareEventService) Create(ctx context.Context, userID, animalID uuid.UUID, input *services.CareEventInput) (*models.CareEvent, error) {
	args := m.Called(ctx, userID, animalID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CareEvent), args.Error(1)
}

func (m *MockCareEventService) ListByAnimal(ctx context.Context, userID, animalID uuid.UUID, limit, offset int) ([]*models.CareEvent, error) {
	args := m.Called(ctx, userID, animalID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CareEvent), args.Error(1)
}

func (m *MockCareEventService) Delete(ctx context.Context, userID, eventID uuid.UUID) error {
	args := m.Called(ctx, userID, eventID)
	return args.Error(0)
}

// CareEventHandlersTestSuite defines the test suite
type CareEventHandlersTestSuite struct {
	suite.Suite
	mockEventSvc *MockCareEventService
	handlers     *CareEventHandlers
	echo         *echo.Echo
	userID       uuid.UUID
}

func (suite *CareEventHandlersTestSuite) SetupTest() {
	suite.mockEventSvc = &MockCareEventService{}
	suite.handlers = NewCareEventHandlers(suite.mockEventSvc)
	suite.echo = echo.New()
	suite.userID = uuid.New()
}

func (suite *CareEventHandlersTestSuite) TearDownTest() {
	suite.mockEventSvc.AssertExpectations(suite.T())
}

func TestCareEventHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(CareEventHandlersTestSuite))
}

func (suite *CareEventHandlersTestSuite) deleteContext(eventID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodDelete, "/v1/events/"+eventID, strings.NewReader(""))
	req = req.WithContext(context.WithValue(req.Context(), common.UserIDKey, suite.userID))
	rec := httptest.NewRecorder()
	c := suite.echo.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(eventID)
	return c, rec
}

func (suite *CareEventHandlersTestSuite) TestDeleteEvent_Success() {
	eventID := uuid.New()
	c, rec := suite.deleteContext(eventID.String())

	suite.mockEventSvc.On("Delete", mock.Anything, suite.userID, eventID).Return(nil).Once()

	err := suite.handlers.DeleteEvent(c)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

// An event owned by someone else must come back 403, never a success body.
func (suite *CareEventHandlersTestSuite) TestDeleteEvent_NotOwner() {
	eventID := uuid.New()
	c, rec := suite.deleteContext(eventID.String())

	suite.mockEventSvc.On("Delete", mock.Anything, suite.userID, eventID).Return(services.ErrNotOwner).Once()

	err := suite.handlers.DeleteEvent(c)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
}

func (suite *CareEventHandlersTestSuite) TestDeleteEvent_NotFound() {
	eventID := uuid.New()
	c, rec := suite.deleteContext(eventID.String())

	suite.mockEventSvc.On("Delete", mock.Anything, suite.userID, eventID).Return(services.ErrEventNotFound).Once()

	err := suite.handlers.DeleteEvent(c)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
}

func (suite *CareEventHandlersTestSuite) TestDeleteEvent_InvalidUUID() {
	c, _ := suite.deleteContext("not-a-uuid")

	err := suite.handlers.DeleteEvent(c)

	httpErr, ok := err.(*echo.HTTPError)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), http.StatusBadRequest, httpErr.Code)
	suite.mockEventSvc.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything, mock.Anything)
}
