package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shop_checkout/services/order/internal/models"
)

type CartLine struct {
	Item    models.CartItem
	Product *models.Product
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetCartByID reads the cart and, when lock is set, holds its row until the
// surrounding transaction ends.
func (r *GormRepo) GetCartByID(ctx context.Context, id uuid.UUID, lock bool) (*models.Cart, error) {
	q := r.DB.WithContext(ctx)
	if lock {
		q = r.forUpdate(q)
	}

	var cart models.Cart
	if err := q.Where("id = ?", id).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListCartLinesWithProductSnapshot returns the cart lines ordered by product id
// with the current product row of each. Product rows are locked in ascending
// id order when lock is set. A line whose product is gone has a nil Product.
func (r *GormRepo) ListCartLinesWithProductSnapshot(ctx context.Context, cartID uuid.UUID, lock bool) ([]CartLine, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ProductID
	}

	q := r.DB.WithContext(ctx)
	if lock {
		q = r.forUpdate(q)
	}
	var products []models.Product
	if err := q.Where("id IN ?", ids).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]CartLine, len(items))
	for i := range items {
		lines[i] = CartLine{Item: items[i], Product: byID[items[i].ProductID]}
	}
	return lines, nil
}

// SetCartStatus moves the cart from one status to another and reports
// ErrCartStateConflict when the cart was not in the expected status.
func (r *GormRepo) SetCartStatus(ctx context.Context, cartID uuid.UUID, from, to models.CartStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartStateConflict
	}
	return nil
}
