package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/order"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
	"github.com/teebalk/marketplace/internal/infrastructure/auth"
	"github.com/teebalk/marketplace/internal/infrastructure/mail"
	"github.com/teebalk/marketplace/tests/testutil"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) to(addr string) []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mail.Message
	for _, msg := range m.sent {
		if len(msg.To) == 1 && msg.To[0] == addr {
			out = append(out, msg)
		}
	}
	return out
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) LookupUser(ctx context.Context, userID uuid.UUID) (*auth.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Profile), args.Error(1)
}

type fixture struct {
	notifier *Notifier
	mailer   *recordingMailer
	users    *mockUsers
	shops    *testutil.MockShopRepository
	logs     *observer.ObservedLogs
	buyer    uuid.UUID
	shop     *shop.Shop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		mailer: &recordingMailer{},
		users:  new(mockUsers),
		shops:  new(testutil.MockShopRepository),
		logs:   logs,
		buyer:  uuid.New(),
	}
	s, err := shop.NewShop(uuid.New(), shop.Profile{Name: "Kyoto Pottery", Email: "shop@kyoto-pottery.jp"})
	require.NoError(t, err)
	f.shop = s
	f.users.On("LookupUser", mock.Anything, f.buyer).Return(&auth.Profile{ID: f.buyer, Email: "buyer@example.com"}, nil)
	f.shops.On("FindByID", mock.Anything, s.ID).Return(s, nil)
	f.notifier = NewNotifier(f.mailer, f.users, f.shops, zap.New(core))
	return f
}

func (f *fixture) orderPaid() *order.OrderPaidEvent {
	id := uuid.New()
	return &order.OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderPaid, order.AggregateTypeOrder, id),
		OrderID:         id,
		Code:            "ORD-20261018-0001",
		UserID:          f.buyer,
		ShopID:          f.shop.ID,
		Total:           decimal.NewFromInt(12800),
		Items: []order.OrderEventItem{
			{ProductID: uuid.New(), Title: "Tea bowl", Price: decimal.NewFromInt(6000), Quantity: 2},
		},
		ShippingAddress: order.ShippingAddress{Name: "Aoi Tanaka", PostalCode: "600-8216", Prefecture: "Kyoto", City: "Shimogyo", Line1: "1-2-3"},
	}
}

func TestNotifier_Yen(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "¥12,000", f.notifier.yen(decimal.NewFromInt(12000)))
	assert.Equal(t, "¥0", f.notifier.yen(decimal.Zero))
}

func TestOrderPaidHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("mails buyer and shop", func(t *testing.T) {
		f := newFixture(t)
		h := NewOrderPaidHandler(f.notifier)
		assert.Equal(t, []string{order.EventTypeOrderPaid}, h.EventTypes())

		require.NoError(t, h.Handle(ctx, f.orderPaid()))

		buyer := f.mailer.to("buyer@example.com")
		require.Len(t, buyer, 1)
		assert.Equal(t, "Order confirmed: ORD-20261018-0001", buyer[0].Subject)
		assert.Contains(t, buyer[0].Body, "Kyoto Pottery")
		assert.Contains(t, buyer[0].Body, "Tea bowl x2  ¥12,000")
		assert.Contains(t, buyer[0].Body, "Total: ¥12,800")

		seller := f.mailer.to("shop@kyoto-pottery.jp")
		require.Len(t, seller, 1)
		assert.Contains(t, seller[0].Body, "Aoi Tanaka")
	})

	t.Run("shop without contact address uses the owner", func(t *testing.T) {
		f := newFixture(t)
		f.shop.Email = ""
		f.users.On("LookupUser", mock.Anything, f.shop.UserID).Return(&auth.Profile{Email: "owner@example.com"}, nil)

		require.NoError(t, NewOrderPaidHandler(f.notifier).Handle(ctx, f.orderPaid()))
		assert.Len(t, f.mailer.to("owner@example.com"), 1)
	})

	t.Run("delivery failures are logged only", func(t *testing.T) {
		f := newFixture(t)
		f.mailer.err = errors.New("smtp down")

		require.NoError(t, NewOrderPaidHandler(f.notifier).Handle(ctx, f.orderPaid()))
		assert.Equal(t, 2, f.logs.FilterMessage("failed to send notification").Len())
	})

	t.Run("unknown recipient is skipped", func(t *testing.T) {
		f := newFixture(t)
		other := f.orderPaid()
		other.UserID = uuid.New()
		f.users.On("LookupUser", mock.Anything, other.UserID).Return(nil, shared.ErrExternalService)

		require.NoError(t, NewOrderPaidHandler(f.notifier).Handle(ctx, other))
		assert.Len(t, f.mailer.sent, 1, "only the shop is mailed")
		assert.Equal(t, 1, f.logs.FilterMessage("notification skipped, no recipient address").Len())
	})

	t.Run("rejects other events", func(t *testing.T) {
		f := newFixture(t)
		err := NewOrderPaidHandler(f.notifier).Handle(ctx, testutil.NewTestEvent(order.EventTypeOrderPaid))
		assert.Error(t, err)
	})
}

func TestOrderShippedHandler_Handle(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	event := &order.OrderShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderShipped, order.AggregateTypeOrder, id),
		OrderID:         id,
		Code:            "ORD-1",
		UserID:          f.buyer,
		ShopID:          f.shop.ID,
		TrackingNumber:  "JP123456789",
	}

	require.NoError(t, NewOrderShippedHandler(f.notifier).Handle(context.Background(), event))
	sent := f.mailer.to("buyer@example.com")
	require.Len(t, sent, 1)
	assert.Equal(t, "Order shipped: ORD-1", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "JP123456789")
	f.shops.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestExperienceOrderPaidHandler_Handle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	experiences := new(testutil.MockExperienceRepository)
	sessions := new(testutil.MockSessionRepository)
	h := NewExperienceOrderPaidHandler(f.notifier, experiences, sessions)

	exp := &experience.Experience{ShopID: f.shop.ID, Title: "Tea ceremony", Location: "Gion, Kyoto"}
	exp.ID = uuid.New()
	start := time.Date(2026, 11, 3, 10, 0, 0, 0, time.UTC)
	session := &experience.Session{ExperienceID: exp.ID, StartTime: start, EndTime: start.Add(time.Hour)}
	session.ID = uuid.New()
	experiences.On("FindByID", mock.Anything, exp.ID).Return(exp, nil)
	sessions.On("FindByID", mock.Anything, session.ID).Return(session, nil)

	id := uuid.New()
	event := &experience.OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(experience.EventTypeExperienceOrderPaid, experience.AggregateTypeExperienceOrder, id),
		OrderID:         id,
		Code:            "EXP-1",
		UserID:          f.buyer,
		ShopID:          f.shop.ID,
		ExperienceID:    exp.ID,
		SessionID:       session.ID,
		Total:           decimal.NewFromInt(15000),
		TicketCodes:     []string{"TKT-AAA", "TKT-BBB"},
	}
	require.NoError(t, h.Handle(ctx, event))

	buyer := f.mailer.to("buyer@example.com")
	require.Len(t, buyer, 1)
	assert.Equal(t, "Booking confirmed: Tea ceremony", buyer[0].Subject)
	assert.Contains(t, buyer[0].Body, "TKT-AAA")
	assert.Contains(t, buyer[0].Body, "TKT-BBB")
	assert.Contains(t, buyer[0].Body, "2026-11-03 10:00 UTC")
	assert.Contains(t, buyer[0].Body, "Gion, Kyoto")
	assert.Contains(t, buyer[0].Body, "¥15,000")

	seller := f.mailer.to("shop@kyoto-pottery.jp")
	require.Len(t, seller, 1)
	assert.Contains(t, seller[0].Body, "Guests: 2")

	t.Run("missing catalogue data still sends", func(t *testing.T) {
		f := newFixture(t)
		experiences := new(testutil.MockExperienceRepository)
		sessions := new(testutil.MockSessionRepository)
		experiences.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		sessions.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		event := *event
		event.ShopID = f.shop.ID
		event.UserID = f.buyer

		require.NoError(t, NewExperienceOrderPaidHandler(f.notifier, experiences, sessions).Handle(ctx, &event))
		buyer := f.mailer.to("buyer@example.com")
		require.Len(t, buyer, 1)
		assert.Equal(t, "Booking confirmed: your experience", buyer[0].Subject)
		assert.NotContains(t, buyer[0].Body, "When:")
	})
}
