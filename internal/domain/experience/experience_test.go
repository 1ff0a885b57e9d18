package experience

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

func newTestExperience(t *testing.T) *Experience {
	t.Helper()
	e, err := NewExperience(uuid.New(), Details{Title: "Tea ceremony", Location: "Kyoto"})
	require.NoError(t, err)
	return e
}

func TestExperience_Tickets(t *testing.T) {
	e := newTestExperience(t)

	adult, err := e.AddTicket("Adult", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.False(t, adult.IsFree)
	assert.Equal(t, e.ID, adult.ExperienceID)

	child, err := e.AddTicket("Child", decimal.Zero)
	require.NoError(t, err)
	assert.True(t, child.IsFree)

	_, err = e.AddTicket("adult", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))

	_, err = e.AddTicket("", decimal.NewFromInt(1))
	assert.True(t, shared.IsValidationError(err))
	_, err = e.AddTicket("Senior", decimal.NewFromInt(-1))
	assert.True(t, shared.IsValidationError(err))

	found, ok := e.FindTicket(child.ID)
	require.True(t, ok)
	assert.Equal(t, "Child", found.Title)
	_, ok = e.FindTicket(uuid.New())
	assert.False(t, ok)
}

func TestExperience_Publish(t *testing.T) {
	e := newTestExperience(t)
	assert.True(t, errors.Is(e.Publish(), shared.ErrInvalidState))

	_, err := e.AddTicket("Adult", decimal.NewFromInt(5000))
	require.NoError(t, err)
	require.NoError(t, e.Publish())
	assert.True(t, e.IsPublished())

	e.Unpublish()
	assert.False(t, e.IsPublished())
}

func TestNewSession(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ticketID := uuid.New()
	caps := map[uuid.UUID]int{ticketID: 10}

	s, err := NewSession(uuid.New(), now.Add(24*time.Hour), now.Add(26*time.Hour), now, caps)
	require.NoError(t, err)
	require.Len(t, s.Tickets, 1)
	assert.Equal(t, 10, s.Tickets[0].Quantity)
	assert.Equal(t, s.ID, s.Tickets[0].SessionID)
	assert.True(t, s.IsBookable(now))
	assert.False(t, s.IsBookable(now.Add(25*time.Hour)))

	_, err = NewSession(uuid.New(), now.Add(2*time.Hour), now.Add(time.Hour), now, caps)
	assert.True(t, shared.IsValidationError(err))
	_, err = NewSession(uuid.New(), now.Add(-time.Hour), now.Add(time.Hour), now, caps)
	assert.True(t, shared.IsValidationError(err))
	_, err = NewSession(uuid.New(), now.Add(time.Hour), now.Add(2*time.Hour), now, map[uuid.UUID]int{ticketID: 0})
	assert.True(t, shared.IsValidationError(err))
}

func TestSession_Cancel(t *testing.T) {
	now := time.Now().UTC()
	s, err := NewSession(uuid.New(), now.Add(time.Hour), now.Add(2*time.Hour), now, map[uuid.UUID]int{uuid.New(): 5})
	require.NoError(t, err)

	s.Tickets[0].Sold = 1
	assert.True(t, errors.Is(s.Cancel(), shared.ErrInvalidState))

	s.Tickets[0].Sold = 0
	require.NoError(t, s.Cancel())
	assert.True(t, errors.Is(s.EnsureBookable(now), shared.ErrInvalidState))
}

func TestSessionTicket_Availability(t *testing.T) {
	st := &SessionTicket{Quantity: 10, Sold: 4}

	assert.Equal(t, 6, st.Available(0))
	assert.Equal(t, 1, st.Available(5))
	assert.Equal(t, 0, st.Available(20))

	require.NoError(t, st.EnsureAvailable(1, 5))
	err := st.EnsureAvailable(2, 5)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

	require.NoError(t, st.Sell(3, 2))
	assert.Equal(t, 7, st.Sold)
	assert.True(t, errors.Is(st.Sell(2, 2), shared.ErrInsufficientStock))
}

func TestReservation(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	r, err := NewReservation(uuid.New(), uuid.New(), uuid.New(), 2, now, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), r.ExpiredAt)
	assert.True(t, r.IsActive(now.Add(14*time.Minute)))
	assert.True(t, r.IsExpired(now.Add(15*time.Minute)))

	r.ExtendUntil(now.Add(5 * time.Minute))
	assert.Equal(t, now.Add(15*time.Minute), r.ExpiredAt)
	r.ExtendUntil(now.Add(45 * time.Minute))
	assert.Equal(t, now.Add(45*time.Minute), r.ExpiredAt)

	txID := uuid.New()
	assert.False(t, r.IsAttachedTo(txID))
	r.AttachTransaction(txID)
	assert.True(t, r.IsAttachedTo(txID))

	_, err = NewReservation(uuid.New(), uuid.New(), uuid.New(), 0, now, time.Minute)
	assert.True(t, shared.IsValidationError(err))

	assert.Equal(t, 5, TotalQuantity([]Reservation{{Quantity: 2}, {Quantity: 3}}))
}

func TestNewPaidOrder(t *testing.T) {
	stA, stB := uuid.New(), uuid.New()
	o, err := NewPaidOrder(uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), []OrderDetail{
		{SessionTicketID: stA, TicketTitle: "Adult", Price: decimal.NewFromInt(5000), Quantity: 2},
		{SessionTicketID: stB, TicketTitle: "Child", Price: decimal.Zero, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, OrderStatusPaid, o.Status)
	assert.True(t, decimal.NewFromInt(10000).Equal(o.Total))
	assert.Len(t, o.Tickets, 3)
	assert.Len(t, o.TicketCodes(), 3)
	assert.Regexp(t, `^EXP-\d{8}-[0-9A-F]{6}$`, o.Code)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	paid, ok := events[0].(*OrderPaidEvent)
	require.True(t, ok)
	assert.Len(t, paid.TicketCodes, 3)

	_, err = NewPaidOrder(uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), nil)
	assert.True(t, shared.IsValidationError(err))
}

func TestOrder_CheckIn(t *testing.T) {
	o, err := NewPaidOrder(uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), []OrderDetail{
		{SessionTicketID: uuid.New(), TicketTitle: "Adult", Price: decimal.NewFromInt(5000), Quantity: 1},
	})
	require.NoError(t, err)
	code := o.Tickets[0].Code
	now := time.Now()

	ticket, err := o.CheckIn(code, now)
	require.NoError(t, err)
	require.NotNil(t, ticket.CheckedInAt)

	_, err = o.CheckIn(code, now)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	_, err = o.CheckIn("UNKNOWN", now)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	o.Status = OrderStatusCancelled
	_, err = o.CheckIn(code, now)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}
