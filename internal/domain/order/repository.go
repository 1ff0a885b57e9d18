package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// Repository defines persistence for orders and their items
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByPaymentTransaction(ctx context.Context, transactionID uuid.UUID) ([]Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	// Save inserts the order with its items or updates the order header
	Save(ctx context.Context, o *Order) error
	SaveWithLock(ctx context.Context, o *Order) error
}
