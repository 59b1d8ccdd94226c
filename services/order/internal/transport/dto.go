package transport

import (
	"time"

	"github.com/Skotchmaster/shop_checkout/pkg/search"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/models"
)

type PlaceOrderRequest struct {
	UserID          string `json:"user_id"`
	CartID          string `json:"cart_id"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	CartID          string              `json:"cart_id"`
	TotalAmount     string              `json:"total_amount"`
	Status          string              `json:"status"`
	ShippingAddress string              `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	Items           []OrderLineResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type OrderListResponse struct {
	Data []OrderResponse `json:"data"`
	Meta Meta            `json:"meta"`
}

type SearchResponse struct {
	Data []search.OrderDocument `json:"data"`
	Meta Meta                   `json:"meta"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	Product   string `json:"product,omitempty"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderLineResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderLineResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Subtotal:    it.Subtotal.StringFixed(2),
		}
	}
	return OrderResponse{
		ID:              o.ID.String(),
		UserID:          o.UserID.String(),
		CartID:          o.CartID.String(),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func NewOrderListResponse(orders []models.Order, meta Meta) OrderListResponse {
	data := make([]OrderResponse, len(orders))
	for i := range orders {
		data[i] = NewOrderResponse(&orders[i])
	}
	return OrderListResponse{Data: data, Meta: meta}
}
