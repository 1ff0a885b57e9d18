package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByShop lists a shop's products in any status
	FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]Product, int64, error)

	// FindPublished lists purchasable products; Filter.Search matches the title
	FindPublished(ctx context.Context, filter shared.Filter) ([]Product, int64, error)

	Save(ctx context.Context, product *Product) error

	// SaveWithLock saves with an optimistic version check and fails with
	// OPTIMISTIC_LOCK_FAILED when another request changed the row first
	SaveWithLock(ctx context.Context, product *Product) error

	// Delete soft-deletes a product
	Delete(ctx context.Context, id uuid.UUID) error
}
