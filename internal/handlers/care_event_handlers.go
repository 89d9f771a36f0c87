package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"critterlog/internal/common"
	"critterlog/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CareEventHandlers handles HTTP requests for care event logging.
type CareEventHandlers struct {
	eventService services.CareEventService
}

// NewCareEventHandlers creates a new care event handlers instance
func NewCareEventHandlers(eventService services.CareEventService) *CareEventHandlers {
	return &CareEventHandlers{
		eventService: eventService,
	}
}

func (h *CareEventHandlers) validateUUID(idStr string) (uuid.UUID, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid UUID format")
	}
	return id, nil
}

// CreateEvent handles POST /animals/:id/events
func (h *CareEventHandlers) CreateEvent(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	animalID, err := h.validateUUID(c.Param("id"))
	if err != nil {
		return err
	}

	var input services.CareEventInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if input.Title == "" {
		return common.SendValidationError(c, "title", "Title is required")
	}
	if err := services.ValidateEventDetails(input.Type, input.Details); err != nil {
		return common.SendValidationError(c, "details", err.Error())
	}

	event, err := h.eventService.Create(ctx, userID, animalID, &input)
	if err != nil {
		return animalError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"event": event,
	})
}

// ListEvents handles GET /animals/:id/events
func (h *CareEventHandlers) ListEvents(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	animalID, err := h.validateUUID(c.Param("id"))
	if err != nil {
		return err
	}

	limit := 100
	offset := 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}

	events, err := h.eventService.ListByAnimal(ctx, userID, animalID, limit, offset)
	if err != nil {
		return animalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"limit":  limit,
		"offset": offset,
	})
}

// DeleteEvent handles DELETE /events/:id
func (h *CareEventHandlers) DeleteEvent(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	eventID, err := h.validateUUID(c.Param("id"))
	if err != nil {
		return err
	}

	if err := h.eventService.Delete(ctx, userID, eventID); err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			return common.SendNotFoundError(c, "Event")
		}
		return animalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Event deleted successfully",
	})
}
