package handlers

import (
	"io"
	"net/http"

	"critterlog/internal/services"

	"github.com/labstack/echo/v4"
)

// WebhookHandlers handles inbound billing webhook deliveries.
type WebhookHandlers struct {
	subscriptionService services.SubscriptionService
	stripeService       services.StripeService
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(subscriptionService services.SubscriptionService, stripeService services.StripeService) *WebhookHandlers {
	return &WebhookHandlers{
		subscriptionService: subscriptionService,
		stripeService:       stripeService,
	}
}

// StripeWebhook handles POST /webhooks/stripe.
//
// The raw body is verified against the Stripe-Signature header before any
// parsing. A bad signature is terminal (400, Stripe does not retry untrusted
// payloads); unknown event types and unresolvable users are acknowledged
// without mutation; only infrastructure failures return 500 so Stripe
// redelivers that specific event.
func (h *WebhookHandlers) StripeWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read request body"})
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing Stripe-Signature header"})
	}

	event, err := h.stripeService.ConstructEvent(body, signature)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Webhook Error: " + err.Error()})
	}

	if err := h.subscriptionService.HandleWebhookEvent(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
