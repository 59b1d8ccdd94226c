package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_checkout/pkg/idempotency"
	"github.com/Skotchmaster/shop_checkout/pkg/logging"
	middleware "github.com/Skotchmaster/shop_checkout/pkg/middleware/auth"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/service"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/transport"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/util"
)

type OrderHTTP struct {
	Checkout *service.CheckoutService
	Orders   *service.OrderService
}

// userIDOr returns explicit when set, otherwise the authenticated subject.
func userIDOr(c echo.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return middleware.UserID(c)
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, l, "place_order_error", fmt.Errorf("%w: invalid body", service.ErrInvalidInput))
	}

	res, err := h.Checkout.PlaceOrder(ctx, service.PlaceOrderInput{
		UserID:          userIDOr(c, req.UserID),
		CartID:          req.CartID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  idempotency.Key(c.Request()),
	})
	if err != nil {
		return respondError(c, l, "place_order_error", err)
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	l.Info("place_order_success", "status", status, "order_id", res.Order.ID)
	return c.JSON(status, transport.NewOrderResponse(res.Order))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	order, err := h.Orders.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Orders.ListOrders(ctx, userIDOr(c, c.QueryParam("user_id")), offset, limit)
	if err != nil {
		return respondError(c, l, "list_orders_error", err)
	}

	l.Info("list_orders_success", "count", len(orders))
	return c.JSON(http.StatusOK, transport.NewOrderListResponse(orders, util.NewMeta(page, offset, limit, total)))
}

func (h *OrderHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, l, "update_status_error", fmt.Errorf("%w: invalid body", service.ErrInvalidInput))
	}

	order, err := h.Orders.UpdateOrderStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		return respondError(c, l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", order.ID, "order_status", order.Status)
	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) SearchOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.search_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, docs, err := h.Orders.SearchOrders(ctx, userIDOr(c, c.QueryParam("user_id")), c.QueryParam("q"), offset, limit)
	if err != nil {
		return respondError(c, l, "search_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{Data: docs, Meta: util.NewMeta(page, offset, limit, total)})
}
