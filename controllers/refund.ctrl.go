package controllers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/shopdock/reepay-sync.go/lib/responses"
	"github.com/shopdock/reepay-sync.go/lib/service"
)

// RefundController : Admin refund controller struct
type RefundController struct {
	svc *service.SyncService
}

func NewRefundController(svc *service.SyncService) *RefundController {
	return &RefundController{svc: svc}
}

type RefundRequestBody struct {
	Amount float64 `json:"amount" validate:"gte=0"`
}

// Refund refunds part or all of the order's settled amount. The resulting
// credit note is recorded so the follow-up webhook does not double-apply.
func (controller *RefundController) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	order := loadOrder(c, controller.svc)
	if order == nil {
		return nil
	}

	var body RefundRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load refund request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid refund request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}

	if controller.svc.LockOrder(ctx, order) {
		defer controller.svc.UnlockOrder(ctx, order)
	}

	if err := controller.svc.RefundOrder(ctx, order, body.Amount); err != nil {
		if errors.Is(err, service.ErrNothingToRefund) {
			return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
		}
		c.Logger().Errorf("Refund failed order_id:%v error: %v", order.ID, err)
		sentry.CaptureException(err)
		return c.JSON(responses.RefundFailedError.HttpStatusCode, responses.RefundFailedError)
	}

	return c.JSON(http.StatusOK, echo.Map{"order_id": order.ID, "status": order.Status})
}
