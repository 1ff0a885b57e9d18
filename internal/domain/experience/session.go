package experience

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// SessionStatus represents whether a session can still be booked
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session is one scheduled occurrence of an experience
type Session struct {
	shared.BaseEntity
	ExperienceID uuid.UUID
	StartTime    time.Time
	EndTime      time.Time
	Status       SessionStatus
	Tickets      []SessionTicket
}

// SessionTicket is the capacity of one ticket type in one session.
// Sold only grows when a paid order is finalized.
type SessionTicket struct {
	shared.BaseEntity
	SessionID uuid.UUID
	TicketID  uuid.UUID
	Quantity  int
	Sold      int
	Version   int
}

// NewSession schedules a session with per-ticket capacities
func NewSession(experienceID uuid.UUID, start, end, now time.Time, capacities map[uuid.UUID]int) (*Session, error) {
	if !end.After(start) {
		return nil, shared.NewFieldValidationError("end_time", "end time must be after start time")
	}
	if !start.After(now) {
		return nil, shared.NewFieldValidationError("start_time", "start time must be in the future")
	}
	if len(capacities) == 0 {
		return nil, shared.NewFieldValidationError("tickets", "session needs at least one ticket")
	}

	s := &Session{
		BaseEntity:   shared.NewBaseEntity(),
		ExperienceID: experienceID,
		StartTime:    start.UTC(),
		EndTime:      end.UTC(),
		Status:       SessionStatusActive,
	}
	for ticketID, qty := range capacities {
		if qty <= 0 {
			return nil, shared.NewFieldValidationError("quantity", "ticket quantity must be positive")
		}
		s.Tickets = append(s.Tickets, SessionTicket{
			BaseEntity: shared.NewBaseEntity(),
			SessionID:  s.ID,
			TicketID:   ticketID,
			Quantity:   qty,
			Version:    1,
		})
	}
	return s, nil
}

// IsBookable reports whether tickets can still be reserved at now
func (s *Session) IsBookable(now time.Time) bool {
	return s.Status == SessionStatusActive && s.StartTime.After(now)
}

// EnsureBookable returns INVALID_STATE unless the session can be booked
func (s *Session) EnsureBookable(now time.Time) error {
	if s.Status != SessionStatusActive {
		return shared.NewApiError(shared.CodeInvalidState, "This session has been cancelled")
	}
	if !s.StartTime.After(now) {
		return shared.NewApiError(shared.CodeInvalidState, "This session has already started")
	}
	return nil
}

// Cancel stops further bookings
func (s *Session) Cancel() error {
	if s.Status == SessionStatusCancelled {
		return nil
	}
	for _, t := range s.Tickets {
		if t.Sold > 0 {
			return shared.NewApiError(shared.CodeInvalidState, "Sessions with sold tickets cannot be cancelled")
		}
	}
	s.Status = SessionStatusCancelled
	s.Touch()
	return nil
}

// Available returns the seats left after sales and active holds
func (t *SessionTicket) Available(activeReserved int) int {
	left := t.Quantity - t.Sold - activeReserved
	if left < 0 {
		return 0
	}
	return left
}

// EnsureAvailable fails with INSUFFICIENT_STOCK if quantity seats are not free
func (t *SessionTicket) EnsureAvailable(quantity, activeReserved int) error {
	if quantity <= 0 {
		return shared.NewFieldValidationError("quantity", "quantity must be positive")
	}
	if available := t.Available(activeReserved); available < quantity {
		return shared.NewApiError(shared.CodeInsufficientStock,
			fmt.Sprintf("Not enough tickets left: available %d, requested %d", available, quantity))
	}
	return nil
}

// Sell records sold seats. Holds belonging to the buyer must not be counted
// in othersReserved, since those are the seats being sold.
func (t *SessionTicket) Sell(quantity, othersReserved int) error {
	if err := t.EnsureAvailable(quantity, othersReserved); err != nil {
		return err
	}
	t.Sold += quantity
	t.Touch()
	return nil
}
