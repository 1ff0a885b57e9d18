package catalog

import (
	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// AggregateTypeProduct is the aggregate type for product events
const AggregateTypeProduct = "Product"

const (
	EventTypeProductCreated = "ProductCreated"
	EventTypeProductSoldOut = "ProductSoldOut"
)

// ProductCreatedEvent is published when a shop lists a new product
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	ShopID    uuid.UUID `json:"shop_id"`
	Title     string    `json:"title"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		ShopID:          p.ShopID,
		Title:           p.Title,
	}
}

// ProductSoldOutEvent is published when stock reaches zero
type ProductSoldOutEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	ShopID    uuid.UUID `json:"shop_id"`
}

// NewProductSoldOutEvent creates a new ProductSoldOutEvent
func NewProductSoldOutEvent(p *Product) *ProductSoldOutEvent {
	return &ProductSoldOutEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductSoldOut, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		ShopID:          p.ShopID,
	}
}
