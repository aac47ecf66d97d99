package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopdock/reepay-sync.go/lib/service"
)

// HealthController : Healthcheck controller struct
type HealthController struct {
	svc *service.SyncService
}

func NewHealthController(svc *service.SyncService) *HealthController {
	return &HealthController{svc: svc}
}

func (controller *HealthController) Health(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
