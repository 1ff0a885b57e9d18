package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/shop"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence"
)

// SeedShop stores a published shop owned by owner
func SeedShop(t *testing.T, db *gorm.DB, owner uuid.UUID) *shop.Shop {
	t.Helper()
	s, err := shop.NewShop(owner, shop.Profile{
		Name:  gofakeit.Company(),
		Email: gofakeit.Email(),
	})
	require.NoError(t, err)
	require.NoError(t, s.Publish())
	s.ClearDomainEvents()
	require.NoError(t, persistence.NewGormShopRepository(db).Save(context.Background(), s))
	return s
}

// SeedProduct stores a published product with a 500 yen shipping fee
func SeedProduct(t *testing.T, db *gorm.DB, shopID uuid.UUID, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(shopID, catalog.Details{
		Title:       gofakeit.ProductName(),
		Description: gofakeit.Sentence(8),
		Price:       decimal.NewFromInt(price),
		ShippingFee: decimal.NewFromInt(500),
		Stock:       stock,
	})
	require.NoError(t, err)
	require.NoError(t, p.Publish())
	p.ClearDomainEvents()
	require.NoError(t, persistence.NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

// ReloadProduct reads the stored state of a product
func ReloadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) *catalog.Product {
	t.Helper()
	p, err := persistence.NewGormProductRepository(db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

// SeededExperience is a published experience with one session
type SeededExperience struct {
	Experience *experience.Experience
	Session    *experience.Session
}

// TicketID returns the ticket type titled title
func (s SeededExperience) TicketID(t *testing.T, title string) uuid.UUID {
	t.Helper()
	for _, tk := range s.Experience.Tickets {
		if tk.Title == title {
			return tk.ID
		}
	}
	t.Fatalf("ticket %q not seeded", title)
	return uuid.Nil
}

// SessionTicketID returns the session capacity row of ticket type title
func (s SeededExperience) SessionTicketID(t *testing.T, title string) uuid.UUID {
	t.Helper()
	ticketID := s.TicketID(t, title)
	for _, st := range s.Session.Tickets {
		if st.TicketID == ticketID {
			return st.ID
		}
	}
	t.Fatalf("session ticket %q not seeded", title)
	return uuid.Nil
}

// SeedExperience stores a published experience with the given ticket
// prices and a session starting tomorrow with capacity seats per ticket
func SeedExperience(t *testing.T, db *gorm.DB, shopID uuid.UUID, prices map[string]int64, capacity int) SeededExperience {
	t.Helper()
	ctx := context.Background()

	e, err := experience.NewExperience(shopID, experience.Details{
		Title:    gofakeit.HipsterSentence(3),
		Location: gofakeit.City(),
	})
	require.NoError(t, err)
	capacities := make(map[uuid.UUID]int, len(prices))
	for title, price := range prices {
		tk, err := e.AddTicket(title, decimal.NewFromInt(price))
		require.NoError(t, err)
		capacities[tk.ID] = capacity
	}
	require.NoError(t, e.Publish())
	experiences := persistence.NewGormExperienceRepository(db)
	require.NoError(t, experiences.Save(ctx, e))
	for i := range e.Tickets {
		require.NoError(t, experiences.SaveTicket(ctx, &e.Tickets[i]))
	}

	now := time.Now().UTC()
	start := now.Add(24 * time.Hour).Truncate(time.Second)
	session, err := experience.NewSession(e.ID, start, start.Add(2*time.Hour), now, capacities)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormSessionRepository(db).Save(ctx, session))

	return SeededExperience{Experience: e, Session: session}
}
