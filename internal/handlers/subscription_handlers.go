package handlers

import (
	"errors"
	"net/http"

	"critterlog/internal/common"
	"critterlog/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers serves the billing endpoints: plan catalogue,
// checkout initiation and the caller's current entitlement.
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
	entitlementService  services.EntitlementService
}

// NewSubscriptionHandlers creates a new subscription handlers instance
func NewSubscriptionHandlers(subscriptionService services.SubscriptionService, entitlementService services.EntitlementService) *SubscriptionHandlers {
	return &SubscriptionHandlers{
		subscriptionService: subscriptionService,
		entitlementService:  entitlementService,
	}
}

// Plan describes a subscription tier shown to the client.
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

var availablePlans = []Plan{
	{
		ID:          "free",
		Name:        "Free",
		Description: "Track a small collection",
		Features: []string{
			"Up to 5 animals",
			"Care event timeline",
			"Photo per animal",
		},
	},
	{
		ID:          "pro",
		Name:        "Pro",
		Description: "Unlimited collection for serious keepers",
		Features: []string{
			"Unlimited animals",
			"Care event timeline",
			"Photo per animal",
			"Priority support",
		},
	},
}

// GetPlans handles GET /billing/plans
func (h *SubscriptionHandlers) GetPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans": availablePlans,
	})
}

// GetSubscription handles GET /billing/subscription
func (h *SubscriptionHandlers) GetSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	subscription, err := h.subscriptionService.GetEntitlement(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Tell the client up front whether the add-animal gate is open so it can
	// show the upgrade prompt without a failed create.
	canAddAnimal := true
	if err := h.entitlementService.CanAddAnimal(ctx, userID); err != nil {
		if !errors.Is(err, services.ErrUpgradeRequired) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		canAddAnimal = false
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscription":   subscription,
		"can_add_animal": canAddAnimal,
	})
}

// CreateCheckout handles POST /billing/checkout
func (h *SubscriptionHandlers) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" {
		return common.SendValidationError(c, "email", "Email is required")
	}

	url, err := h.subscriptionService.CreateCheckout(ctx, userID, req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
