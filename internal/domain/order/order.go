package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// Status represents the order lifecycle
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ShippingAddress is where a product order is delivered
type ShippingAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
}

// Validate checks the required address fields
func (a ShippingAddress) Validate() error {
	required := map[string]string{
		"name":        a.Name,
		"postal_code": a.PostalCode,
		"prefecture":  a.Prefecture,
		"city":        a.City,
		"line1":       a.Line1,
	}
	for _, field := range []string{"name", "postal_code", "prefecture", "city", "line1"} {
		if strings.TrimSpace(required[field]) == "" {
			return shared.NewFieldValidationError("shipping_address."+field, "is required")
		}
	}
	return nil
}

// Item is a snapshot of a purchased product
type Item struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	Title       string
	Price       decimal.Decimal
	ShippingFee decimal.Decimal
	Quantity    int
}

// Subtotal is price times quantity
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a buyer's purchase from a single shop
type Order struct {
	shared.BaseAggregateRoot
	Code                 string
	UserID               uuid.UUID
	ShopID               uuid.UUID
	Status               Status
	Items                []Item
	Subtotal             decimal.Decimal
	ShippingFee          decimal.Decimal
	Total                decimal.Decimal
	PlatformFee          decimal.Decimal
	Currency             shared.Currency
	ShippingAddress      ShippingAddress
	PaymentTransactionID *uuid.UUID
	PaidAt               *time.Time
	ShippedAt            *time.Time
	TrackingNumber       string
}

// NewOrder creates a pending order. Shipping is charged once per line, and
// the platform fee is commissionRate of the total rounded down to the yen.
func NewOrder(userID, shopID uuid.UUID, items []Item, address ShippingAddress, commissionRate decimal.Decimal) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.NewFieldValidationError("items", "order must contain at least one item")
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, shared.NewFieldValidationError("commission_rate", "must be between 0 and 1")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		ShopID:            shopID,
		Status:            StatusPending,
		Currency:          shared.DefaultCurrency,
		ShippingAddress:   address,
		Subtotal:          decimal.Zero,
		ShippingFee:       decimal.Zero,
	}
	o.Code = GenerateCode("ORD", o.CreatedAt, o.ID)

	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, shared.NewFieldValidationError("quantity", "quantity must be positive")
		}
		it.ID = uuid.New()
		o.Items = append(o.Items, it)
		o.Subtotal = o.Subtotal.Add(it.Subtotal())
		o.ShippingFee = o.ShippingFee.Add(it.ShippingFee)
	}
	o.Total = o.Subtotal.Add(o.ShippingFee)
	o.PlatformFee = shared.RoundAmount(o.Total.Mul(commissionRate), o.Currency)

	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// AttachPayment links the order to the payment transaction paying for it
func (o *Order) AttachPayment(transactionID uuid.UUID) {
	o.PaymentTransactionID = &transactionID
	o.Touch()
}

// MarkPaid moves a pending order to paid
func (o *Order) MarkPaid() error {
	if o.Status == StatusPaid {
		return nil
	}
	if o.Status != StatusPending {
		return o.invalidTransition(StatusPaid)
	}
	now := shared.Now()
	o.Status = StatusPaid
	o.PaidAt = &now
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// Ship moves a paid order to shipped
func (o *Order) Ship(trackingNumber string) error {
	if o.Status != StatusPaid {
		return o.invalidTransition(StatusShipped)
	}
	now := shared.Now()
	o.Status = StatusShipped
	o.ShippedAt = &now
	o.TrackingNumber = strings.TrimSpace(trackingNumber)
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderShippedEvent(o))
	return nil
}

// Complete is called by the buyer once the parcel arrived
func (o *Order) Complete() error {
	if o.Status != StatusShipped {
		return o.invalidTransition(StatusCompleted)
	}
	o.Status = StatusCompleted
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Cancel cancels an unpaid order
func (o *Order) Cancel() error {
	if o.Status == StatusCancelled {
		return nil
	}
	if o.Status != StatusPending {
		return o.invalidTransition(StatusCancelled)
	}
	o.Status = StatusCancelled
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// IsBuyer reports whether userID placed the order
func (o *Order) IsBuyer(userID uuid.UUID) bool {
	return o.UserID == userID
}

func (o *Order) invalidTransition(to Status) error {
	return shared.NewApiError(shared.CodeInvalidState,
		fmt.Sprintf("Cannot move order %s from %s to %s", o.Code, o.Status, to))
}

// GenerateCode builds a human readable order number such as
// ORD-20240501-3F2A9C. The suffix comes from the entity ID.
func GenerateCode(prefix string, at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), suffix)
}
