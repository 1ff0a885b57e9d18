package experience

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// Repository persists experiences together with their ticket types
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Experience, error)
	FindPublished(ctx context.Context, filter shared.Filter) ([]Experience, int64, error)
	FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]Experience, int64, error)
	Save(ctx context.Context, e *Experience) error
	SaveTicket(ctx context.Context, t *Ticket) error
}

// SessionRepository persists sessions and their ticket capacities
type SessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	FindByExperience(ctx context.Context, experienceID uuid.UUID, from time.Time) ([]Session, error)
	// FindTicketsForUpdate loads the session's ticket rows with a write lock.
	// Must be called inside a database transaction.
	FindTicketsForUpdate(ctx context.Context, sessionID uuid.UUID) ([]SessionTicket, error)
	Save(ctx context.Context, s *Session) error
	// SaveTicketWithLock updates sold with an optimistic version check
	SaveTicketWithLock(ctx context.Context, t *SessionTicket) error
}

// ReservationRepository persists temporary ticket holds
type ReservationRepository interface {
	FindActiveByUserAndSession(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) ([]Reservation, error)
	FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]Reservation, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]Reservation, error)
	// SumActiveBySessionTicket returns held seats per session ticket
	SumActiveBySessionTicket(ctx context.Context, sessionID uuid.UUID, now time.Time) (map[uuid.UUID]int, error)
	SaveBatch(ctx context.Context, rs []Reservation) error
	DeleteByUserAndSession(ctx context.Context, userID, sessionID uuid.UUID) (int64, error)
	DeleteByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// OrderRepository persists bookings with details and tickets
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*Order, error)
	FindByTicketCode(ctx context.Context, code string) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	Save(ctx context.Context, o *Order) error
	SaveTicket(ctx context.Context, t *OrderTicket) error
}
