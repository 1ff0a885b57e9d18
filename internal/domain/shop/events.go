package shop

import (
	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// AggregateTypeShop is the aggregate type for shop events
const AggregateTypeShop = "Shop"

const (
	EventTypeShopCreated   = "ShopCreated"
	EventTypeShopPublished = "ShopPublished"
)

// ShopCreatedEvent is published when a seller opens a shop
type ShopCreatedEvent struct {
	shared.BaseDomainEvent
	ShopID uuid.UUID `json:"shop_id"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// NewShopCreatedEvent creates a new ShopCreatedEvent
func NewShopCreatedEvent(s *Shop) *ShopCreatedEvent {
	return &ShopCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShopCreated, AggregateTypeShop, s.ID),
		ShopID:          s.ID,
		UserID:          s.UserID,
		Name:            s.Name,
	}
}

// ShopPublishedEvent is published when a shop becomes visible
type ShopPublishedEvent struct {
	shared.BaseDomainEvent
	ShopID uuid.UUID `json:"shop_id"`
}

// NewShopPublishedEvent creates a new ShopPublishedEvent
func NewShopPublishedEvent(s *Shop) *ShopPublishedEvent {
	return &ShopPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShopPublished, AggregateTypeShop, s.ID),
		ShopID:          s.ID,
	}
}
