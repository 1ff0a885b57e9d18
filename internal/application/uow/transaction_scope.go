// Package uow defines the unit of work used by application services that
// must change several aggregates atomically.
package uow

import (
	"context"

	"github.com/teebalk/marketplace/internal/domain/cart"
	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/order"
	"github.com/teebalk/marketplace/internal/domain/payment"
)

// TransactionScope runs work inside one database transaction. If fn
// returns an error the transaction is rolled back, otherwise committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to repositories bound to the running
// transaction. Row locks taken through them last until the scope ends.
type Repositories interface {
	Products() catalog.ProductRepository
	Carts() cart.Repository
	Orders() order.Repository
	Transactions() payment.TransactionRepository
	Sessions() experience.SessionRepository
	Reservations() experience.ReservationRepository
	ExperienceOrders() experience.OrderRepository
}
