package experience

import (
	"time"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// Reservation temporarily holds seats of a session ticket while the buyer
// pays. A hold counts against availability until ExpiredAt; expired rows
// are deleted by the cleanup job.
type Reservation struct {
	shared.BaseEntity
	SessionID            uuid.UUID
	SessionTicketID      uuid.UUID
	UserID               uuid.UUID
	Quantity             int
	ExpiredAt            time.Time
	PaymentTransactionID *uuid.UUID
}

// NewReservation creates a hold that expires ttl after now
func NewReservation(sessionID, sessionTicketID, userID uuid.UUID, quantity int, now time.Time, ttl time.Duration) (*Reservation, error) {
	if quantity <= 0 {
		return nil, shared.NewFieldValidationError("quantity", "quantity must be positive")
	}
	if ttl <= 0 {
		return nil, shared.NewFieldValidationError("ttl", "reservation ttl must be positive")
	}
	r := &Reservation{
		BaseEntity:      shared.NewBaseEntity(),
		SessionID:       sessionID,
		SessionTicketID: sessionTicketID,
		UserID:          userID,
		Quantity:        quantity,
		ExpiredAt:       now.Add(ttl).UTC(),
	}
	return r, nil
}

// IsExpired reports whether the hold lapsed at now
func (r *Reservation) IsExpired(now time.Time) bool {
	return !r.ExpiredAt.After(now)
}

// IsActive is the opposite of IsExpired
func (r *Reservation) IsActive(now time.Time) bool {
	return !r.IsExpired(now)
}

// ExtendUntil pushes the expiry forward; it never shortens a hold
func (r *Reservation) ExtendUntil(t time.Time) {
	if t.After(r.ExpiredAt) {
		r.ExpiredAt = t.UTC()
		r.Touch()
	}
}

// AttachTransaction links the hold to the payment paying for it
func (r *Reservation) AttachTransaction(id uuid.UUID) {
	r.PaymentTransactionID = &id
	r.Touch()
}

// IsAttachedTo reports whether the hold is paid by transaction id
func (r *Reservation) IsAttachedTo(id uuid.UUID) bool {
	return r.PaymentTransactionID != nil && *r.PaymentTransactionID == id
}

// TotalQuantity sums the held seats
func TotalQuantity(rs []Reservation) int {
	n := 0
	for _, r := range rs {
		n += r.Quantity
	}
	return n
}
