package experience

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// OrderStatus represents the state of an experience booking
type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderDetail is one ticket line of a booking
type OrderDetail struct {
	ID              uuid.UUID
	SessionTicketID uuid.UUID
	TicketTitle     string
	Price           decimal.Decimal
	Quantity        int
}

// Subtotal is price times quantity
func (d OrderDetail) Subtotal() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// OrderTicket is one admission issued to the buyer, identified by a code
// the shop scans at the door
type OrderTicket struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	SessionTicketID uuid.UUID
	Code            string
	CheckedInAt     *time.Time
}

// Order is a paid experience booking
type Order struct {
	shared.BaseAggregateRoot
	Code                 string
	UserID               uuid.UUID
	ShopID               uuid.UUID
	ExperienceID         uuid.UUID
	SessionID            uuid.UUID
	Status               OrderStatus
	Total                decimal.Decimal
	Currency             shared.Currency
	PaymentTransactionID uuid.UUID
	Details              []OrderDetail
	Tickets              []OrderTicket
}

// NewPaidOrder creates a booking for a settled payment and issues one
// ticket code per seat
func NewPaidOrder(userID, shopID, experienceID, sessionID, transactionID uuid.UUID, details []OrderDetail) (*Order, error) {
	if len(details) == 0 {
		return nil, shared.NewFieldValidationError("details", "booking must contain at least one ticket")
	}
	o := &Order{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		UserID:               userID,
		ShopID:               shopID,
		ExperienceID:         experienceID,
		SessionID:            sessionID,
		Status:               OrderStatusPaid,
		Total:                decimal.Zero,
		Currency:             shared.DefaultCurrency,
		PaymentTransactionID: transactionID,
	}
	o.Code = fmt.Sprintf("EXP-%s-%s", o.CreatedAt.Format("20060102"),
		strings.ToUpper(strings.ReplaceAll(o.ID.String(), "-", "")[:6]))

	for _, d := range details {
		if d.Quantity <= 0 {
			return nil, shared.NewFieldValidationError("quantity", "quantity must be positive")
		}
		d.ID = uuid.New()
		o.Details = append(o.Details, d)
		o.Total = o.Total.Add(d.Subtotal())
		for i := 0; i < d.Quantity; i++ {
			o.Tickets = append(o.Tickets, OrderTicket{
				ID:              uuid.New(),
				OrderID:         o.ID,
				SessionTicketID: d.SessionTicketID,
				Code:            strings.ToUpper(uuid.NewString()),
			})
		}
	}

	o.AddDomainEvent(NewOrderPaidEvent(o))
	return o, nil
}

// TicketCodes returns the admission codes of the booking
func (o *Order) TicketCodes() []string {
	codes := make([]string, len(o.Tickets))
	for i, t := range o.Tickets {
		codes[i] = t.Code
	}
	return codes
}

// CheckIn marks the ticket with code as used
func (o *Order) CheckIn(code string, now time.Time) (*OrderTicket, error) {
	if o.Status != OrderStatusPaid {
		return nil, shared.NewApiError(shared.CodeInvalidState, "Booking is not valid for admission")
	}
	for i := range o.Tickets {
		t := &o.Tickets[i]
		if !strings.EqualFold(t.Code, code) {
			continue
		}
		if t.CheckedInAt != nil {
			return nil, shared.NewApiError(shared.CodeInvalidState, "Ticket has already been used")
		}
		at := now.UTC()
		t.CheckedInAt = &at
		o.Touch()
		return t, nil
	}
	return nil, shared.NewApiError(shared.CodeNotFound, "Ticket not found")
}
