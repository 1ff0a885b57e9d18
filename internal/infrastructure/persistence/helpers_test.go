package persistence

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/shop"
)

// newTestDB opens a private in-memory SQLite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), NewGormConfig(WithoutPreparedStatements()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a new database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func newTestShop(t *testing.T, db *gorm.DB) *shop.Shop {
	t.Helper()
	s, err := shop.NewShop(uuid.New(), shop.Profile{
		Name:  gofakeit.Company(),
		Email: gofakeit.Email(),
	})
	require.NoError(t, err)
	require.NoError(t, NewGormShopRepository(db).Save(context.Background(), s))
	return s
}

func newTestProduct(t *testing.T, db *gorm.DB, shopID uuid.UUID, title string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(shopID, catalog.Details{
		Title:       title,
		Description: gofakeit.Sentence(8),
		Price:       decimal.NewFromInt(price),
		ShippingFee: decimal.NewFromInt(500),
		Stock:       stock,
	})
	require.NoError(t, err)
	require.NoError(t, p.Publish())
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}
