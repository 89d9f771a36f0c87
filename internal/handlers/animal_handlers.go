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

// AnimalHandlers handles HTTP requests for the animal collection.
type AnimalHandlers struct {
	animalService services.AnimalService
}

// NewAnimalHandlers creates a new animal handlers instance
func NewAnimalHandlers(animalService services.AnimalService) *AnimalHandlers {
	return &AnimalHandlers{
		animalService: animalService,
	}
}

func (h *AnimalHandlers) validateUUID(idStr string) (uuid.UUID, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid UUID format")
	}
	return id, nil
}

// animalError maps service errors onto the response taxonomy: upgrade
// denials, ownership refusals and missing animals each get their own shape.
func animalError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrUpgradeRequired):
		return common.SendUpgradeRequired(c, "You have reached the limit of 5 animals on the free plan")
	case errors.Is(err, services.ErrNotOwner):
		return common.SendForbiddenError(c, err.Error())
	case errors.Is(err, services.ErrAnimalNotFound):
		return common.SendNotFoundError(c, "Animal")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// CreateAnimal handles POST /animals
func (h *AnimalHandlers) CreateAnimal(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	var input services.AnimalInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := services.ValidateAnimalInput(&input); err != nil {
		return common.SendValidationError(c, "animal", err.Error())
	}

	animal, err := h.animalService.Create(ctx, userID, &input)
	if err != nil {
		return animalError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"animal": animal,
	})
}

// ListAnimals handles GET /animals
func (h *AnimalHandlers) ListAnimals(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	limit := 50
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

	animals, err := h.animalService.List(ctx, userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"animals": animals,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetAnimal handles GET /animals/:id
func (h *AnimalHandlers) GetAnimal(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	animalID, err := h.validateUUID(c.Param("id"))
	if err != nil {
		return err
	}

	animal, err := h.animalService.GetByID(ctx, userID, animalID)
	if err != nil {
		return animalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"animal": animal,
	})
}

// UpdateAnimal handles PUT /animals/:id
func (h *AnimalHandlers) UpdateAnimal(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	animalID, err := h.validateUUID(c.Param("id"))
	if err != nil {
		return err
	}

	var input services.AnimalInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := services.ValidateAnimalInput(&input); err != nil {
		return common.SendValidationError(c, "animal", err.Error())
	}

	animal, err := h.animalService.Update(ctx, userID, animalID, &input)
	if err != nil {
		return animalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"animal": animal,
	})
}

// DeleteAnimal handles DELETE /animals/:id
func (h *AnimalHandlers) DeleteAnimal(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	animalID, err := h.validateUUID(c.Param("id"))
	if err != nil {
		return err
	}

	if err := h.animalService.Delete(ctx, userID, animalID); err != nil {
		return animalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Animal deleted successfully",
	})
}

// UploadPhoto handles POST /animals/:id/photo
func (h *AnimalHandlers) UploadPhoto(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	animalID, err := h.validateUUID(c.Param("id"))
	if err != nil {
		return err
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return common.SendValidationError(c, "photo", "Photo file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read photo")
	}
	defer src.Close()

	photoURL, err := h.animalService.UploadPhoto(ctx, userID, animalID, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return animalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"photo_url": photoURL,
	})
}
