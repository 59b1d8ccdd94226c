package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/shop_checkout/pkg/middleware/auth"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	OrderHandler   *OrderHTTP
	JWTSecret      []byte
	DB             Pinger
	MetricsHandler http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			if err := d.DB.Ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(d.MetricsHandler))
	}

	idMW := middleware.NewIdentityMiddleware(d.JWTSecret)

	orders := e.Group("/orders", idMW.Identify)
	orders.POST("/checkout", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/search", d.OrderHandler.SearchOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateOrderStatus, middleware.RequireAuth, middleware.RequireRole("admin"))
}
