package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type for order events
const AggregateTypeOrder = "Order"

const (
	EventTypeOrderCreated   = "OrderCreated"
	EventTypeOrderPaid      = "OrderPaid"
	EventTypeOrderShipped   = "OrderShipped"
	EventTypeOrderCancelled = "OrderCancelled"
)

// OrderEventItem is the item payload carried by order events
type OrderEventItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func eventItems(o *Order) []OrderEventItem {
	items := make([]OrderEventItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderEventItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}
	return items
}

// OrderCreatedEvent is published when checkout creates an order
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID       `json:"order_id"`
	Code    string          `json:"code"`
	UserID  uuid.UUID       `json:"user_id"`
	ShopID  uuid.UUID       `json:"shop_id"`
	Total   decimal.Decimal `json:"total"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Code:            o.Code,
		UserID:          o.UserID,
		ShopID:          o.ShopID,
		Total:           o.Total,
	}
}

// OrderPaidEvent is published once payment for the order settled
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID        `json:"order_id"`
	Code            string           `json:"code"`
	UserID          uuid.UUID        `json:"user_id"`
	ShopID          uuid.UUID        `json:"shop_id"`
	Total           decimal.Decimal  `json:"total"`
	Items           []OrderEventItem `json:"items"`
	ShippingAddress ShippingAddress  `json:"shipping_address"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Code:            o.Code,
		UserID:          o.UserID,
		ShopID:          o.ShopID,
		Total:           o.Total,
		Items:           eventItems(o),
		ShippingAddress: o.ShippingAddress,
	}
}

// OrderShippedEvent is published when the seller ships an order
type OrderShippedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	Code           string    `json:"code"`
	UserID         uuid.UUID `json:"user_id"`
	ShopID         uuid.UUID `json:"shop_id"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
}

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(o *Order) *OrderShippedEvent {
	return &OrderShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderShipped, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Code:            o.Code,
		UserID:          o.UserID,
		ShopID:          o.ShopID,
		TrackingNumber:  o.TrackingNumber,
	}
}

// OrderCancelledEvent is published when an unpaid order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Code    string    `json:"code"`
	UserID  uuid.UUID `json:"user_id"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Code:            o.Code,
		UserID:          o.UserID,
	}
}
