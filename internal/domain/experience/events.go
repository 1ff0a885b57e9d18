package experience

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// AggregateTypeExperienceOrder is the aggregate type for booking events
const AggregateTypeExperienceOrder = "ExperienceOrder"

// EventTypeExperienceOrderPaid is published once a booking is finalized
const EventTypeExperienceOrderPaid = "ExperienceOrderPaid"

// OrderPaidEvent carries what the confirmation emails need
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	Code         string          `json:"code"`
	UserID       uuid.UUID       `json:"user_id"`
	ShopID       uuid.UUID       `json:"shop_id"`
	ExperienceID uuid.UUID       `json:"experience_id"`
	SessionID    uuid.UUID       `json:"session_id"`
	Total        decimal.Decimal `json:"total"`
	TicketCodes  []string        `json:"ticket_codes"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExperienceOrderPaid, AggregateTypeExperienceOrder, o.ID),
		OrderID:         o.ID,
		Code:            o.Code,
		UserID:          o.UserID,
		ShopID:          o.ShopID,
		ExperienceID:    o.ExperienceID,
		SessionID:       o.SessionID,
		Total:           o.Total,
		TicketCodes:     o.TicketCodes(),
	}
}
