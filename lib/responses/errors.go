package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var OrderNotFoundError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "order not found",
	HttpStatusCode: 404,
}

var CaptureNotAllowedError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "order has no capturable amount",
	HttpStatusCode: 400,
}

var SettleFailedError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "capture failed at the payment processor. Please try again later",
	HttpStatusCode: 502,
}

var RefundFailedError = ErrorResponse{
	Error:          true,
	Code:           5,
	Message:        "refund failed at the payment processor. Please try again later",
	HttpStatusCode: 502,
}

var CancelFailedError = ErrorResponse{
	Error:          true,
	Code:           7,
	Message:        "cancel failed at the payment processor. Please try again later",
	HttpStatusCode: 502,
}

var RenewalChargeFailedError = ErrorResponse{
	Error:          true,
	Code:           9,
	Message:        "renewal charge was declined by the payment processor",
	HttpStatusCode: 502,
}

var TokenResolutionError = ErrorResponse{
	Error:          true,
	Code:           10,
	Message:        "no reusable payment method found for this order",
	HttpStatusCode: 400,
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}
