package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_checkout/services/order/internal/models"
)

// DecrementProductStock takes amount units off the product stock. The update
// only applies while enough stock remains; otherwise ErrStockConflict.
func (r *GormRepo) DecrementProductStock(ctx context.Context, productID uuid.UUID, amount int) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, amount).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}
