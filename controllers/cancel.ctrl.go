package controllers

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/shopdock/reepay-sync.go/lib/responses"
	"github.com/shopdock/reepay-sync.go/lib/service"
)

// CancelController : Admin cancel controller struct
type CancelController struct {
	svc *service.SyncService
}

func NewCancelController(svc *service.SyncService) *CancelController {
	return &CancelController{svc: svc}
}

// Cancel moves the order to the cancelled status and voids the remote
// authorization. A remote failure leaves the order in its previous status.
func (controller *CancelController) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	order := loadOrder(c, controller.svc)
	if order == nil {
		return nil
	}

	if controller.svc.LockOrder(ctx, order) {
		defer controller.svc.UnlockOrder(ctx, order)
	}

	if err := controller.svc.HandleStatusChange(ctx, order, controller.svc.Config.StatusCancelled); err != nil {
		c.Logger().Errorf("Cancel failed order_id:%v error: %v", order.ID, err)
		sentry.CaptureException(err)
		return c.JSON(responses.CancelFailedError.HttpStatusCode, responses.CancelFailedError)
	}

	return c.JSON(http.StatusOK, echo.Map{"order_id": order.ID, "status": order.Status})
}
