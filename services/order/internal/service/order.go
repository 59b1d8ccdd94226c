package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shop_checkout/pkg/logging"
	"github.com/Skotchmaster/shop_checkout/pkg/search"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/models"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/repo"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Index  OrderIndexer
	Search OrderSearcher
}

func (s *OrderService) GetOrder(ctx context.Context, rawID string) (*models.Order, error) {
	id, err := parseID(rawID, "order id")
	if err != nil {
		return nil, err
	}

	order, err := s.Repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order")
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, rawUserID string, offset, limit int) (int64, []models.Order, error) {
	userID, err := parseID(rawUserID, "user_id")
	if err != nil {
		return 0, nil, err
	}

	total, orders, err := s.Repo.ListOrdersByUser(ctx, userID, limit, offset)
	if err != nil {
		return 0, nil, storageErr("list orders", err)
	}
	return total, orders, nil
}

// UpdateOrderStatus sets any status of the fixed set. Transitions between
// statuses are not restricted and stock is not returned on cancel.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, rawID, rawStatus string) (*models.Order, error) {
	id, err := parseID(rawID, "order id")
	if err != nil {
		return nil, err
	}
	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, rawStatus)
	}

	order, err := s.Repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, notFoundOr(err, "order")
	}

	l := logging.FromContext(ctx).With("order_id", order.ID)
	bg := context.WithoutCancel(ctx)
	if s.Events != nil {
		if err := s.Events.PublishEvent(bg, order.UserID.String(), newOrderStatusChangedEvent(order)); err != nil {
			l.Error("publish_order_status_changed_failed", "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.IndexOrder(bg, orderDocument(order)); err != nil {
			l.Error("index_order_failed", "error", err)
		}
	}
	return order, nil
}

// SearchOrders matches query against the orders of one user only.
func (s *OrderService) SearchOrders(ctx context.Context, rawUserID, query string, offset, limit int) (int64, []search.OrderDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: q is required", ErrInvalidInput)
	}

	userID, err := parseID(rawUserID, "user_id")
	if err != nil {
		return 0, nil, err
	}

	if s.Search == nil {
		return 0, nil, storageErr("search orders", search.ErrDisabled)
	}
	total, docs, err := s.Search.SearchOrders(ctx, userID.String(), query, offset, limit)
	if err != nil {
		return 0, nil, storageErr("search orders", err)
	}
	return total, docs, nil
}
