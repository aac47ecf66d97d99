package controllers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopdock/reepay-sync.go/lib/service"
)

// WebhookController : Inbound processor webhook controller struct
type WebhookController struct {
	svc *service.SyncService
}

func NewWebhookController(svc *service.SyncService) *WebhookController {
	return &WebhookController{svc: svc}
}

// Webhook accepts one delivery from the payment processor. The response is
// always 200: the processor offers no retry negotiation, so internal
// failures are logged and the delivery is acknowledged regardless.
func (controller *WebhookController) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		c.Logger().Errorf("Failed to read webhook body: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}

	controller.svc.ProcessWebhook(c.Request().Context(), body)
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
