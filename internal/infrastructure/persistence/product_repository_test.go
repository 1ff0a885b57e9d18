package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

func TestGormProductRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	s := newTestShop(t, db)

	p := newTestProduct(t, db, s.ID, "Matcha Set", 3200, 5)

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Matcha Set", found.Title)
	assert.True(t, decimal.NewFromInt(3200).Equal(found.Price))
	assert.Equal(t, 5, found.Stock)
	assert.Equal(t, catalog.ProductStatusPublished, found.Status)
	assert.Equal(t, found.Version, found.PersistedVersion())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_FindPublished(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	s := newTestShop(t, db)

	newTestProduct(t, db, s.ID, "Green Tea", 1000, 1)
	newTestProduct(t, db, s.ID, "Black Tea", 1200, 1)
	newTestProduct(t, db, s.ID, "Coffee Beans", 2000, 1)
	draft, err := catalog.NewProduct(s.ID, catalog.Details{Title: "Tea Cup", Price: decimal.NewFromInt(800)})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, draft))

	t.Run("search matches title case-insensitively", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "TEA"
		products, total, err := repo.FindPublished(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, products, 2)
	})

	t.Run("paginates and sorts", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.PageSize = 2
		filter.OrderBy = "price"
		filter.OrderDir = "asc"
		products, total, err := repo.FindPublished(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, products, 2)
		assert.Equal(t, "Green Tea", products[0].Title)
		assert.Equal(t, "Black Tea", products[1].Title)
	})

	t.Run("shop listing includes drafts", func(t *testing.T) {
		_, total, err := repo.FindByShop(ctx, s.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})
}

func TestGormProductRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	s := newTestShop(t, db)
	p := newTestProduct(t, db, s.ID, "Limited Print", 5000, 3)

	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, first.DeductStock(2))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.DeductStock(2))
	err = repo.SaveWithLock(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrOptimisticLock)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stock)

	// the winner can keep saving
	require.NoError(t, first.RestoreStock(1))
	require.NoError(t, repo.SaveWithLock(ctx, first))
}

func TestGormProductRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	s := newTestShop(t, db)
	p := newTestProduct(t, db, s.ID, "Old Stock", 100, 1)

	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), shared.ErrNotFound)

	var count int64
	require.NoError(t, db.Unscoped().Table("products").Where("id = ?", p.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "soft delete keeps the row")
}
