package cart

import (
	"context"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// MaxQuantityPerItem bounds a single cart line
const MaxQuantityPerItem = 99

// CartItem is one product line in a buyer's cart. A user has at most one
// line per product.
type CartItem struct {
	shared.BaseEntity
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// NewCartItem creates a cart line
func NewCartItem(userID, productID uuid.UUID, quantity int) (*CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return &CartItem{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
	}, nil
}

// SetQuantity replaces the line quantity
func (c *CartItem) SetQuantity(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	c.Quantity = quantity
	c.Touch()
	return nil
}

// BelongsTo reports whether the line is in userID's cart
func (c *CartItem) BelongsTo(userID uuid.UUID) bool {
	return c.UserID == userID
}

func validateQuantity(q int) error {
	if q <= 0 {
		return shared.NewFieldValidationError("quantity", "quantity must be positive")
	}
	if q > MaxQuantityPerItem {
		return shared.NewFieldValidationError("quantity", "quantity cannot exceed 99")
	}
	return nil
}

// Repository defines persistence for cart items
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CartItem, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*CartItem, error)
	// FindByIDsForUser returns the user's lines among ids
	FindByIDsForUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]CartItem, error)
	Save(ctx context.Context, item *CartItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
