package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_checkout/services/order/internal/service"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/transport"
)

func statusFor(kind string) int {
	switch kind {
	case service.KindInvalidInput, service.KindInvalidState, service.KindInsufficientStock:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// respondError writes the error body for err and logs it under event.
func respondError(c echo.Context, l *slog.Logger, event string, err error) error {
	kind := service.Kind(err)
	status := statusFor(kind)

	body := transport.ErrorResponse{Error: kind, Detail: err.Error()}

	var se *service.StockError
	if errors.As(err, &se) {
		body.Product = se.Product
		body.Available = &se.Available
		body.Requested = &se.Requested
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", kind, "error", err)
		body.Detail = "the request could not be completed, it is safe to retry"
	} else {
		l.Warn(event, "status", status, "reason", kind, "error", err)
	}
	return c.JSON(status, body)
}
