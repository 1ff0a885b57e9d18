package shop

import (
	"context"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// Repository defines persistence for shops
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Shop, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Shop, error)
	// FindByIDs returns the shops that exist among ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Shop, error)
	// FindPublished lists published shops. Filter.Search matches the name.
	FindPublished(ctx context.Context, filter shared.Filter) ([]Shop, int64, error)
	ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error)
	Save(ctx context.Context, s *Shop) error
	// SaveWithLock saves with an optimistic version check
	SaveWithLock(ctx context.Context, s *Shop) error
}
