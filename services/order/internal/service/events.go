package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/shop_checkout/pkg/search"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/models"
)

const (
	EventOrderPlaced        = "order_placed"
	EventOrderStatusChanged = "order_status_changed"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

type OrderIndexer interface {
	IndexOrder(ctx context.Context, doc search.OrderDocument) error
}

type OrderSearcher interface {
	SearchOrders(ctx context.Context, userID, query string, from, size int) (int64, []search.OrderDocument, error)
}

type OrderEventLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderPlacedEvent struct {
	Type        string           `json:"type"`
	OrderID     string           `json:"order_id"`
	UserID      string           `json:"user_id"`
	CartID      string           `json:"cart_id"`
	TotalAmount string           `json:"total_amount"`
	Items       []OrderEventLine `json:"items"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

type OrderStatusChangedEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newOrderPlacedEvent(o *models.Order) OrderPlacedEvent {
	lines := make([]OrderEventLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = OrderEventLine{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
		}
	}
	return OrderPlacedEvent{
		Type:        EventOrderPlaced,
		OrderID:     o.ID.String(),
		UserID:      o.UserID.String(),
		CartID:      o.CartID.String(),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       lines,
		OccurredAt:  time.Now().UTC(),
	}
}

func newOrderStatusChangedEvent(o *models.Order) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		Type:       EventOrderStatusChanged,
		OrderID:    o.ID.String(),
		UserID:     o.UserID.String(),
		Status:     string(o.Status),
		OccurredAt: time.Now().UTC(),
	}
}

func orderDocument(o *models.Order) search.OrderDocument {
	lines := make([]search.OrderLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = search.OrderLine{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		}
	}
	return search.OrderDocument{
		OrderID:         o.ID.String(),
		UserID:          o.UserID.String(),
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Items:           lines,
		CreatedAt:       o.CreatedAt,
	}
}
