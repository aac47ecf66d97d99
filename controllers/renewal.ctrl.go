package controllers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/shopdock/reepay-sync.go/lib/responses"
	"github.com/shopdock/reepay-sync.go/lib/service"
)

// RenewalController : Subscription renewal charge controller struct
type RenewalController struct {
	svc *service.SyncService
}

func NewRenewalController(svc *service.SyncService) *RenewalController {
	return &RenewalController{svc: svc}
}

type RenewalRequestBody struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Settle bool    `json:"settle"`
}

// Renew charges the stored payment method for a subscription renewal
// order. The scheduler that creates renewal orders calls this endpoint.
func (controller *RenewalController) Renew(c echo.Context) error {
	ctx := c.Request().Context()

	order := loadOrder(c, controller.svc)
	if order == nil {
		return nil
	}

	var body RenewalRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load renewal request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid renewal request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}

	if controller.svc.LockOrder(ctx, order) {
		defer controller.svc.UnlockOrder(ctx, order)
	}

	if err := controller.svc.ChargeRenewal(ctx, order, body.Amount, body.Settle); err != nil {
		if errors.Is(err, service.ErrNoPaymentToken) {
			return c.JSON(responses.TokenResolutionError.HttpStatusCode, responses.TokenResolutionError)
		}
		c.Logger().Errorf("Renewal charge failed order_id:%v error: %v", order.ID, err)
		sentry.CaptureException(err)
		return c.JSON(responses.RenewalChargeFailedError.HttpStatusCode, responses.RenewalChargeFailedError)
	}

	return c.JSON(http.StatusOK, echo.Map{"order_id": order.ID, "status": order.Status})
}
