package transport

import (
	"github.com/labstack/echo/v4"
	"github.com/shopdock/reepay-sync.go/controllers"
	"github.com/shopdock/reepay-sync.go/lib/service"
	"github.com/shopdock/reepay-sync.go/lib/tokens"
)

// RegisterEndpoints wires the webhook, health and admin trigger routes.
// The webhook route carries its own strict rate limit; authentication for
// it is the HMAC signature check inside the processor, not a middleware.
func RegisterEndpoints(svc *service.SyncService, e *echo.Echo, strictRateLimitMiddleware echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	e.GET("/health", controllers.NewHealthController(svc).Health)
	e.POST("/reepay/webhook", controllers.NewWebhookController(svc).Webhook, strictRateLimitMiddleware, logMw)

	admin := e.Group("/admin", tokens.AdminTokenMiddleware(svc.Config.AdminToken), logMw)
	admin.POST("/orders/:id/capture", controllers.NewCaptureController(svc).Capture)
	admin.POST("/orders/:id/cancel", controllers.NewCancelController(svc).Cancel)
	admin.POST("/orders/:id/refund", controllers.NewRefundController(svc).Refund)
	admin.POST("/orders/:id/renew", controllers.NewRenewalController(svc).Renew)
}
