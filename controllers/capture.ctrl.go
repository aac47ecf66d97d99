package controllers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/lib/responses"
	"github.com/shopdock/reepay-sync.go/lib/service"
)

// CaptureController : Admin capture controller struct
type CaptureController struct {
	svc *service.SyncService
}

func NewCaptureController(svc *service.SyncService) *CaptureController {
	return &CaptureController{svc: svc}
}

type CaptureRequestBody struct {
	Amount float64 `json:"amount" validate:"gte=0"`
}

// Capture settles an authorized order, either partially for the requested
// amount or in full when no amount is given.
func (controller *CaptureController) Capture(c echo.Context) error {
	ctx := c.Request().Context()

	order := loadOrder(c, controller.svc)
	if order == nil {
		return nil
	}

	var body CaptureRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load capture request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid capture request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}

	ok, err := controller.svc.CanCapture(ctx, order)
	if err != nil {
		c.Logger().Errorf("Failed to check capturable amount order_id:%v error: %v", order.ID, err)
		sentry.CaptureException(err)
		return c.JSON(responses.SettleFailedError.HttpStatusCode, responses.SettleFailedError)
	}
	if !ok {
		return c.JSON(responses.CaptureNotAllowedError.HttpStatusCode, responses.CaptureNotAllowedError)
	}

	if controller.svc.LockOrder(ctx, order) {
		defer controller.svc.UnlockOrder(ctx, order)
	}

	if err := controller.svc.CaptureOrder(ctx, order, body.Amount); err != nil {
		c.Logger().Errorf("Capture failed order_id:%v error: %v", order.ID, err)
		sentry.CaptureException(err)
		return c.JSON(responses.SettleFailedError.HttpStatusCode, responses.SettleFailedError)
	}

	return c.JSON(http.StatusOK, echo.Map{"order_id": order.ID, "status": order.Status})
}

// loadOrder resolves the :id path parameter into an order. On failure the
// error response is already written and nil is returned. Shared by the
// admin controllers.
func loadOrder(c echo.Context, svc *service.SyncService) *models.Order {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Logger().Errorf("Invalid order id param: %v", err)
		c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
		return nil
	}
	order, err := svc.Store.OrderByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(responses.OrderNotFoundError.HttpStatusCode, responses.OrderNotFoundError)
			return nil
		}
		c.Logger().Errorf("Failed to load order order_id:%v error: %v", id, err)
		c.JSON(responses.GeneralServerError.HttpStatusCode, responses.GeneralServerError)
		return nil
	}
	return order
}
