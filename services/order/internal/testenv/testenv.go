// Package testenv opens throwaway databases and seeds checkout fixtures for tests.
package testenv

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgdb "github.com/Skotchmaster/shop_checkout/pkg/db"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/models"
)

const PostgresEnv = "ORDER_TEST_DATABASE_URL"

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
	}
}

// SQLite returns a migrated private in-memory database. The pool holds a
// single connection because SQLite serializes writers.
func SQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, pkgdb.Migrate(context.Background(), db, models.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Postgres connects to ORDER_TEST_DATABASE_URL and recreates the schema,
// skipping the test when the variable is not set.
func Postgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skipf("%s is not set", PostgresEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, dsn, pkgdb.DefaultPoolOptions())
	require.NoError(t, err)

	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		require.NoError(t, db.Migrator().DropTable(all[i]))
	}
	require.NoError(t, pkgdb.Migrate(ctx, db, all...))

	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return db
}

func User(t testing.TB, db *gorm.DB, role string) models.User {
	t.Helper()
	u := models.User{Username: "user_" + uuid.NewString()[:8], Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func Product(t testing.TB, db *gorm.DB, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), StockQuantity: stock}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func Cart(t testing.TB, db *gorm.DB, userID uuid.UUID) models.Cart {
	t.Helper()
	c := models.Cart{UserID: userID, Status: models.CartStatusActive}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func CartItem(t testing.TB, db *gorm.DB, cartID, productID uuid.UUID, qty int, price string) models.CartItem {
	t.Helper()
	it := models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty, Price: decimal.RequireFromString(price)}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func Stock(t testing.TB, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Where("id = ?", productID).First(&p).Error)
	return p.StockQuantity
}

func CartStatus(t testing.TB, db *gorm.DB, cartID uuid.UUID) models.CartStatus {
	t.Helper()
	var c models.Cart
	require.NoError(t, db.Where("id = ?", cartID).First(&c).Error)
	return c.Status
}

// Count returns the number of rows of model.
func Count(t testing.TB, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
