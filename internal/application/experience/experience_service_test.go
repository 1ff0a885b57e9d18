package experience

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence"
	"github.com/teebalk/marketplace/tests/testutil"
)

func newExperienceService(t *testing.T) (*ExperienceService, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	svc := NewExperienceService(
		persistence.NewGormExperienceRepository(db),
		persistence.NewGormSessionRepository(db),
		persistence.NewGormReservationRepository(db),
		persistence.NewGormShopRepository(db),
	)
	return svc, db
}

func TestExperienceService_CreateAndPublish(t *testing.T) {
	ctx := context.Background()
	svc, db := newExperienceService(t)
	seller := testutil.TestSellerID()
	testutil.SeedShop(t, db, seller)

	created, err := svc.Create(ctx, seller, ExperienceRequest{Title: "Tea ceremony", Location: "Kyoto"})
	require.NoError(t, err)
	assert.Equal(t, string(experience.StatusDraft), created.Status)

	_, err = svc.Publish(ctx, seller, created.ID)
	assert.Error(t, err, "publishing without tickets")

	ticket, err := svc.AddTicket(ctx, seller, created.ID, TicketRequest{Title: "Adult", Price: decimal.NewFromInt(3000)})
	require.NoError(t, err)
	assert.False(t, ticket.IsFree)

	published, err := svc.Publish(ctx, seller, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(experience.StatusPublished), published.Status)
	require.Len(t, published.Tickets, 1)
	assert.Equal(t, ticket.ID, published.Tickets[0].ID)

	t.Run("other sellers are forbidden", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), created.ID, ExperienceRequest{Title: "Mine now"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("sellers without a shop", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.New(), ExperienceRequest{Title: "Nope"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestExperienceService_AddSession(t *testing.T) {
	ctx := context.Background()
	svc, db := newExperienceService(t)
	seller := testutil.TestSellerID()
	sh := testutil.SeedShop(t, db, seller)
	seeded := testutil.SeedExperience(t, db, sh.ID, map[string]int64{"Adult": 3000}, 10)
	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)

	t.Run("schedules a session", func(t *testing.T) {
		resp, err := svc.AddSession(ctx, seller, seeded.Experience.ID, SessionRequest{
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Tickets:   []SessionCapacity{{TicketID: seeded.TicketID(t, "Adult"), Quantity: 4}},
		})
		require.NoError(t, err)
		assert.True(t, resp.Bookable)
		require.Len(t, resp.Tickets, 1)
		assert.Equal(t, "Adult", resp.Tickets[0].Title)
		assert.Equal(t, 4, resp.Tickets[0].Available)
	})

	t.Run("foreign ticket", func(t *testing.T) {
		_, err := svc.AddSession(ctx, seller, seeded.Experience.ID, SessionRequest{
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Tickets:   []SessionCapacity{{TicketID: uuid.New(), Quantity: 4}},
		})
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("session in the past", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := svc.AddSession(ctx, seller, seeded.Experience.ID, SessionRequest{
			StartTime: past,
			EndTime:   past.Add(30 * time.Minute),
			Tickets:   []SessionCapacity{{TicketID: seeded.TicketID(t, "Adult"), Quantity: 4}},
		})
		assert.True(t, shared.IsValidationError(err))
	})
}

func TestExperienceService_Get(t *testing.T) {
	ctx := context.Background()
	svc, db := newExperienceService(t)
	seller := testutil.TestSellerID()
	sh := testutil.SeedShop(t, db, seller)
	seeded := testutil.SeedExperience(t, db, sh.ID, map[string]int64{"Adult": 3000, "Child": 1500}, 10)

	now := time.Now().UTC()
	hold, err := experience.NewReservation(seeded.Session.ID, seeded.SessionTicketID(t, "Adult"), uuid.New(), 3, now, 15*time.Minute)
	require.NoError(t, err)
	expired, err := experience.NewReservation(seeded.Session.ID, seeded.SessionTicketID(t, "Child"), uuid.New(), 2, now.Add(-time.Hour), 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormReservationRepository(db).SaveBatch(ctx, []experience.Reservation{*hold, *expired}))

	resp, err := svc.Get(ctx, nil, seeded.Experience.ID)
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 1)

	available := make(map[string]int)
	for _, st := range resp.Sessions[0].Tickets {
		available[st.Title] = st.Available
	}
	assert.Equal(t, 7, available["Adult"], "active holds reduce availability")
	assert.Equal(t, 10, available["Child"], "expired holds do not count")

	t.Run("unpublished is visible to the owner only", func(t *testing.T) {
		_, err := svc.Unpublish(ctx, seller, seeded.Experience.ID)
		require.NoError(t, err)

		_, err = svc.Get(ctx, nil, seeded.Experience.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		stranger := uuid.New()
		_, err = svc.Get(ctx, &stranger, seeded.Experience.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = svc.Get(ctx, &seller, seeded.Experience.ID)
		assert.NoError(t, err)
	})
}

func TestExperienceService_CancelSession(t *testing.T) {
	ctx := context.Background()
	svc, db := newExperienceService(t)
	seller := testutil.TestSellerID()
	sh := testutil.SeedShop(t, db, seller)
	seeded := testutil.SeedExperience(t, db, sh.ID, map[string]int64{"Adult": 3000}, 10)

	_, err := svc.CancelSession(ctx, uuid.New(), seeded.Session.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	resp, err := svc.CancelSession(ctx, seller, seeded.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, string(experience.SessionStatusCancelled), resp.Status)
	assert.False(t, resp.Bookable)

	stored, err := persistence.NewGormSessionRepository(db).FindByID(ctx, seeded.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, experience.SessionStatusCancelled, stored.Status)
}

func TestExperienceService_List(t *testing.T) {
	ctx := context.Background()
	svc, db := newExperienceService(t)
	seller := testutil.TestSellerID()
	sh := testutil.SeedShop(t, db, seller)
	other := testutil.SeedShop(t, db, uuid.New())
	testutil.SeedExperience(t, db, sh.ID, map[string]int64{"Adult": 3000}, 10)
	testutil.SeedExperience(t, db, other.ID, map[string]int64{"Adult": 2000}, 10)
	_, err := svc.Create(ctx, seller, ExperienceRequest{Title: "Draft tour"})
	require.NoError(t, err)

	all, err := svc.List(ctx, ExperienceListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	mine, err := svc.List(ctx, ExperienceListFilter{ShopID: &sh.ID})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, sh.ID, mine.Items[0].ShopID)

	owned, err := svc.ListShop(ctx, seller, ExperienceListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), owned.Total, "drafts are listed for the owner")

	_, err = svc.ListShop(ctx, uuid.New(), ExperienceListFilter{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
