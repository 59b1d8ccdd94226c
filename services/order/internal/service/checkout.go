package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_checkout/pkg/idempotency"
	"github.com/Skotchmaster/shop_checkout/pkg/logging"
	"github.com/Skotchmaster/shop_checkout/pkg/metrics"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/models"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/repo"
)

const (
	MaxShippingAddressLen = 500
	MaxPaymentMethodLen   = 64

	DefaultMaxAttempts = 3
	defaultBackoff     = 50 * time.Millisecond
)

// MaxAmount is the largest money value the numeric(12,2) columns hold.
var MaxAmount = decimal.RequireFromString("9999999999.99")

type PlaceOrderInput struct {
	UserID          string
	CartID          string
	ShippingAddress string
	PaymentMethod   string
	IdempotencyKey  string
}

type PlaceOrderResult struct {
	Order *models.Order
	// Replayed is set when the order was produced by an earlier request
	// carrying the same idempotency key.
	Replayed bool
}

type CheckoutService struct {
	Repo        *repo.GormRepo
	Events      EventPublisher
	Index       OrderIndexer
	Idempotency idempotency.Store
	Metrics     *metrics.CheckoutMetrics

	MaxAttempts int
	Backoff     time.Duration
}

type checkoutCommand struct {
	userID  uuid.UUID
	cartID  uuid.UUID
	address string
	payment string
}

// PlaceOrder turns the active cart into a pending order. Stock, order rows
// and the cart status change commit together or not at all.
func (s *CheckoutService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	start := time.Now()
	l := logging.FromContext(ctx).With("component", "checkout", "user_id", in.UserID, "cart_id", in.CartID)

	res, err := s.placeOrder(ctx, in)
	if err != nil {
		s.Metrics.Observe(Kind(err), time.Since(start))
		if Kind(err) == KindStorage {
			l.Error("place_order_failed", "kind", Kind(err), "error", err)
		} else {
			l.Warn("place_order_rejected", "kind", Kind(err), "error", err)
		}
		return nil, err
	}

	if res.Replayed {
		s.Metrics.Observe("replayed", time.Since(start))
		l.Info("place_order_replayed", "order_id", res.Order.ID)
		return res, nil
	}

	s.Metrics.Observe("success", time.Since(start))
	l.Info("place_order_success",
		"order_id", res.Order.ID,
		"total", res.Order.TotalAmount.StringFixed(2),
		"lines", len(res.Order.Items),
	)
	return res, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, in PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	cmd, err := validatePlaceOrder(in)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if s.Idempotency == nil {
		key = ""
	}
	scope := cmd.userID.String()

	if key != "" {
		if res, ok, err := s.replay(ctx, scope, key); err != nil || ok {
			return res, err
		}

		locked, err := s.Idempotency.TryLock(ctx, scope, key)
		if err != nil {
			return nil, storageErr("lock idempotency key", err)
		}
		if !locked {
			// The holder may have finished between Recall and TryLock.
			if res, ok, err := s.replay(ctx, scope, key); err != nil || ok {
				return res, err
			}
			return nil, fmt.Errorf("%w: a checkout with this idempotency key is in progress", ErrConflict)
		}
		defer func() {
			if err == nil {
				return
			}
			if rerr := s.Idempotency.Release(context.WithoutCancel(ctx), scope, key); rerr != nil {
				logging.FromContext(ctx).Error("idempotency_release_failed", "key", key, "error", rerr)
			}
		}()
	}

	order, err := s.commitWithRetry(ctx, cmd)
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, order, scope, key)
	return &PlaceOrderResult{Order: order}, nil
}

func (s *CheckoutService) replay(ctx context.Context, scope, key string) (*PlaceOrderResult, bool, error) {
	v, found, err := s.Idempotency.Recall(ctx, scope, key)
	if err != nil {
		return nil, false, storageErr("recall idempotency key", err)
	}
	if !found {
		return nil, false, nil
	}

	orderID, err := uuid.Parse(v)
	if err != nil {
		return nil, false, storageErr("recall idempotency key", err)
	}
	order, err := s.Repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, false, storageErr("load replayed order", err)
	}
	return &PlaceOrderResult{Order: order, Replayed: true}, true, nil
}

func (s *CheckoutService) commitWithRetry(ctx context.Context, cmd checkoutCommand) (*models.Order, error) {
	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = DefaultMaxAttempts
	}
	backoff := s.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	var err error
	for attempt := 1; ; attempt++ {
		s.Metrics.Attempt()

		var order *models.Order
		order, err = s.placeOnce(ctx, cmd)
		if err == nil {
			return order, nil
		}
		if !retryable(err) || attempt >= attempts {
			break
		}

		logging.FromContext(ctx).Warn("place_order_retry", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, storageErr("checkout abandoned", ctx.Err())
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}

	if retryable(err) {
		return nil, fmt.Errorf("gave up after %d attempts: %w", attempts, err)
	}
	return nil, err
}

func (s *CheckoutService) placeOnce(ctx context.Context, cmd checkoutCommand) (*models.Order, error) {
	var order *models.Order

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetUserByID(ctx, cmd.userID); err != nil {
			return notFoundOr(err, "user")
		}

		cart, err := tx.GetCartByID(ctx, cmd.cartID, true)
		if err != nil {
			return notFoundOr(err, "cart")
		}
		if cart.Status != models.CartStatusActive {
			return fmt.Errorf("%w: cart not active", ErrInvalidState)
		}
		if cart.UserID != cmd.userID {
			return fmt.Errorf("%w: cart belongs to another user", ErrForbidden)
		}

		lines, err := tx.ListCartLinesWithProductSnapshot(ctx, cart.ID, true)
		if err != nil {
			return storageErr("list cart lines", err)
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: empty cart", ErrInvalidState)
		}
		if err := checkStock(lines); err != nil {
			return err
		}

		order, err = buildOrder(cmd, lines)
		if err != nil {
			return err
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: cart already ordered", ErrInvalidState)
			}
			if numericOverflow(err) {
				return fmt.Errorf("%w: order total out of range", ErrInvalidInput)
			}
			return storageErr("insert order", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			if err := tx.InsertOrderLine(ctx, item); err != nil {
				if numericOverflow(err) {
					return fmt.Errorf("%w: line amount out of range", ErrInvalidInput)
				}
				return storageErr("insert order line", err)
			}
			if err := tx.DecrementProductStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, repo.ErrStockConflict) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
					return &StockError{
						Product:   item.ProductName,
						ProductID: item.ProductID,
						Available: lines[i].Product.StockQuantity,
						Requested: item.Quantity,
					}
				}
				return storageErr("decrement stock", err)
			}
		}

		if err := tx.SetCartStatus(ctx, cart.ID, models.CartStatusActive, models.CartStatusOrdered); err != nil {
			if errors.Is(err, repo.ErrCartStateConflict) {
				return fmt.Errorf("%w: cart not active", ErrInvalidState)
			}
			return storageErr("set cart status", err)
		}
		return nil
	})
	if err != nil {
		if !classified(err) {
			return nil, storageErr("commit checkout", err)
		}
		return nil, err
	}
	return order, nil
}

// afterCommit feeds the committed order to the side channels. Failures are
// logged and never reach the caller.
func (s *CheckoutService) afterCommit(ctx context.Context, order *models.Order, scope, key string) {
	bg := context.WithoutCancel(ctx)
	l := logging.FromContext(ctx).With("order_id", order.ID)

	if s.Events != nil {
		if err := s.Events.PublishEvent(bg, order.UserID.String(), newOrderPlacedEvent(order)); err != nil {
			l.Error("publish_order_placed_failed", "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.IndexOrder(bg, orderDocument(order)); err != nil {
			l.Error("index_order_failed", "error", err)
		}
	}
	if key != "" {
		if err := s.Idempotency.Remember(bg, scope, key, order.ID.String()); err != nil {
			l.Error("idempotency_remember_failed", "key", key, "error", err)
		}
	}
}

func validatePlaceOrder(in PlaceOrderInput) (checkoutCommand, error) {
	userID, err := parseID(in.UserID, "user_id")
	if err != nil {
		return checkoutCommand{}, err
	}
	cartID, err := parseID(in.CartID, "cart_id")
	if err != nil {
		return checkoutCommand{}, err
	}

	address := strings.TrimSpace(in.ShippingAddress)
	if utf8.RuneCountInString(address) > MaxShippingAddressLen {
		return checkoutCommand{}, fmt.Errorf("%w: shipping_address longer than %d characters", ErrInvalidInput, MaxShippingAddressLen)
	}
	payment := strings.TrimSpace(in.PaymentMethod)
	if utf8.RuneCountInString(payment) > MaxPaymentMethodLen {
		return checkoutCommand{}, fmt.Errorf("%w: payment_method longer than %d characters", ErrInvalidInput, MaxPaymentMethodLen)
	}

	return checkoutCommand{userID: userID, cartID: cartID, address: address, payment: payment}, nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", ErrInvalidInput, field)
	}
	return id, nil
}

// checkStock verifies every line before anything is written. Lines arrive
// ordered by product id, so the reported shortfall is deterministic.
func checkStock(lines []repo.CartLine) error {
	for _, line := range lines {
		if line.Product == nil {
			return fmt.Errorf("%w: product %s", ErrNotFound, line.Item.ProductID)
		}
		if line.Product.StockQuantity < line.Item.Quantity {
			return &StockError{
				Product:   line.Product.Name,
				ProductID: line.Product.ID,
				Available: line.Product.StockQuantity,
				Requested: line.Item.Quantity,
			}
		}
	}
	return nil
}

// buildOrder prices the lines. Amounts that do not fit the money columns are
// rejected before anything is written.
func buildOrder(cmd checkoutCommand, lines []repo.CartLine) (*models.Order, error) {
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          cmd.userID,
		CartID:          cmd.cartID,
		Status:          models.OrderStatusPending,
		ShippingAddress: cmd.address,
		PaymentMethod:   cmd.payment,
		Items:           make([]models.OrderItem, 0, len(lines)),
	}

	total := decimal.Zero
	for _, line := range lines {
		unit := line.Item.Price.Round(2)
		subtotal := unit.Mul(decimal.NewFromInt(int64(line.Item.Quantity))).Round(2)
		if unit.Abs().GreaterThan(MaxAmount) || subtotal.Abs().GreaterThan(MaxAmount) {
			return nil, fmt.Errorf("%w: amount for %s exceeds %s", ErrInvalidInput, line.Product.Name, MaxAmount.StringFixed(2))
		}
		total = total.Add(subtotal)

		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.Item.ProductID,
			ProductName: line.Product.Name,
			Quantity:    line.Item.Quantity,
			UnitPrice:   unit,
			Subtotal:    subtotal,
		})
	}
	order.TotalAmount = total.Round(2)
	if order.TotalAmount.GreaterThan(MaxAmount) {
		return nil, fmt.Errorf("%w: order total exceeds %s", ErrInvalidInput, MaxAmount.StringFixed(2))
	}
	return order, nil
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return storageErr("get "+what, err)
}

// retryable reports lock contention the database resolved by aborting us.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

func numericOverflow(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}

func classified(err error) bool {
	for _, target := range []error{
		ErrInvalidInput, ErrNotFound, ErrForbidden, ErrInvalidState,
		ErrInsufficientStock, ErrStorage, ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
