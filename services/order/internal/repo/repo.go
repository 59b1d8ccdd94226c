package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgdb "github.com/Skotchmaster/shop_checkout/pkg/db"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/models"
)

var (
	ErrStockConflict     = errors.New("stock changed concurrently")
	ErrCartStateConflict = errors.New("cart status changed concurrently")
)

type GormRepo struct {
	DB *gorm.DB
}

// Transaction runs fn against a repo bound to a single transaction.
// Any error returned by fn rolls everything back.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return pkgdb.Migrate(ctx, r.DB, models.All()...)
}

func (r *GormRepo) Ping(ctx context.Context) error {
	return pkgdb.Ping(ctx, r.DB)
}

// forUpdate adds a row lock to q. SQLite has no row locks and serializes
// writers on its own, so the clause is left out there.
func (r *GormRepo) forUpdate(q *gorm.DB) *gorm.DB {
	if r.DB.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
