package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	paymentapp "github.com/teebalk/marketplace/internal/application/payment"
	"github.com/teebalk/marketplace/internal/domain/cart"
	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/order"
	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence"
	"github.com/teebalk/marketplace/tests/testutil"
)

type fixture struct {
	db      *gorm.DB
	svc     *OrderService
	gateway *testutil.MockGateway
	wallet  *testutil.MockCoinWallet
	pub     *testutil.RecordingPublisher
	buyer   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &fixture{
		db:      db,
		gateway: new(testutil.MockGateway),
		wallet:  new(testutil.MockCoinWallet),
		pub:     &testutil.RecordingPublisher{},
		buyer:   testutil.TestUserID(),
	}
	payments := paymentapp.NewPaymentService(persistence.NewGormPaymentTransactionRepository(db), f.gateway, f.wallet, zap.NewNop())
	f.svc = NewOrderService(
		persistence.NewGormOrderRepository(db),
		persistence.NewGormShopRepository(db),
		persistence.NewGormTransactionScope(db),
		payments,
		decimal.RequireFromString("0.1"),
		zap.NewNop(),
	)
	f.svc.SetEventPublisher(f.pub)
	return f
}

func (f *fixture) addToCart(t *testing.T, p *catalog.Product, quantity int) uuid.UUID {
	t.Helper()
	item, err := cart.NewCartItem(f.buyer, p.ID, quantity)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCartRepository(f.db).Save(context.Background(), item))
	return item.ID
}

func (f *fixture) cartSize(t *testing.T) int {
	t.Helper()
	items, err := persistence.NewGormCartRepository(f.db).FindByUser(context.Background(), f.buyer)
	require.NoError(t, err)
	return len(items)
}

func (f *fixture) transaction(t *testing.T, id uuid.UUID) *payment.Transaction {
	t.Helper()
	tx, err := persistence.NewGormPaymentTransactionRepository(f.db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return tx
}

func address() AddressRequest {
	return AddressRequest{
		Name:       "Hanako Yamada",
		PostalCode: "150-0001",
		Prefecture: "Tokyo",
		City:       "Shibuya",
		Line1:      "1-2-3 Jingumae",
	}
}

func amount(v int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(v)) })
}

func (f *fixture) expectIntent(id string) {
	f.gateway.On("CreatePaymentIntent", mock.Anything, mock.Anything).
		Return(&payment.Intent{ID: id, ClientSecret: id + "_secret"}, nil).Once()
}

func TestOrderService_CheckoutByCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	shopA := testutil.SeedShop(t, f.db, uuid.New())
	shopB := testutil.SeedShop(t, f.db, uuid.New())
	a1 := testutil.SeedProduct(t, f.db, shopA.ID, 1000, 5)
	a2 := testutil.SeedProduct(t, f.db, shopA.ID, 2000, 5)
	b1 := testutil.SeedProduct(t, f.db, shopB.ID, 3000, 1)
	untouched := testutil.SeedProduct(t, f.db, shopB.ID, 3000, 1)

	ids := []uuid.UUID{f.addToCart(t, a1, 2), f.addToCart(t, a2, 1), f.addToCart(t, b1, 1)}
	f.addToCart(t, untouched, 1)
	f.expectIntent("pi_checkout")

	resp, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{CartItemIDs: ids, ShippingAddress: address()})
	require.NoError(t, err)

	require.Len(t, resp.Orders, 2)
	totals := map[uuid.UUID]decimal.Decimal{}
	for _, o := range resp.Orders {
		assert.Equal(t, "pending", o.Status)
		totals[o.ShopID] = o.Total
	}
	// 4000 + two lines of 500 shipping
	assert.True(t, totals[shopA.ID].Equal(decimal.NewFromInt(5000)))
	assert.True(t, totals[shopB.ID].Equal(decimal.NewFromInt(3500)))
	assert.Equal(t, "pending", resp.Payment.Status)
	assert.True(t, resp.Payment.TotalAmount.Equal(decimal.NewFromInt(8500)))
	assert.Equal(t, "pi_checkout_secret", resp.Payment.ClientSecret)
	f.wallet.AssertNotCalled(t, "Balance", mock.Anything, mock.Anything)

	assert.Equal(t, 3, testutil.ReloadProduct(t, f.db, a1.ID).Stock)
	assert.Equal(t, 0, testutil.ReloadProduct(t, f.db, b1.ID).Stock)
	assert.Equal(t, 4, f.cartSize(t), "cart is kept until the payment succeeds")
	assert.Equal(t, []string{order.EventTypeOrderCreated, order.EventTypeOrderCreated}, f.pub.Types())

	tx, err := f.svc.CompleteOrderPayment(ctx, resp.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, tx.Status)
	assert.Equal(t, 1, f.cartSize(t))
	for _, o := range resp.Orders {
		got, err := f.svc.Get(ctx, f.buyer, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "paid", got.Status)
		assert.NotNil(t, got.PaidAt)
	}
	assert.Contains(t, f.pub.Types(), payment.EventTypeTransactionCompleted)

	published := len(f.pub.Events())
	_, err = f.svc.CompleteOrderPayment(ctx, resp.Payment.ID)
	require.NoError(t, err, "redelivered success is harmless")
	assert.Len(t, f.pub.Events(), published)
}

func TestOrderService_CheckoutWithCoinsOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sh := testutil.SeedShop(t, f.db, uuid.New())
	p := testutil.SeedProduct(t, f.db, sh.ID, 1500, 3)
	ids := []uuid.UUID{f.addToCart(t, p, 1)}

	f.wallet.On("Balance", mock.Anything, f.buyer).Return(decimal.NewFromInt(5000), nil)
	f.wallet.On("Charge", mock.Anything, f.buyer, amount(2000), mock.Anything).Return("coin-1", nil)

	resp, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{
		CartItemIDs:     ids,
		ShippingAddress: address(),
		UsedCoins:       decimal.NewFromInt(9999),
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Payment.Status)
	assert.True(t, resp.Payment.CoinAmount.Equal(decimal.NewFromInt(2000)))
	assert.True(t, resp.Payment.FiatAmount.IsZero())
	assert.Equal(t, "paid", resp.Orders[0].Status)
	assert.Equal(t, 0, f.cartSize(t))
	f.gateway.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything)
}

func TestOrderService_CheckoutRollsBack(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient stock", func(t *testing.T) {
		f := newFixture(t)
		sh := testutil.SeedShop(t, f.db, uuid.New())
		plenty := testutil.SeedProduct(t, f.db, sh.ID, 1000, 10)
		scarce := testutil.SeedProduct(t, f.db, sh.ID, 1000, 1)
		ids := []uuid.UUID{f.addToCart(t, plenty, 2), f.addToCart(t, scarce, 2)}

		_, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{CartItemIDs: ids, ShippingAddress: address()})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 10, testutil.ReloadProduct(t, f.db, plenty.ID).Stock)
		assert.Empty(t, f.pub.Events())
	})

	t.Run("card remainder below the minimum charge", func(t *testing.T) {
		f := newFixture(t)
		sh := testutil.SeedShop(t, f.db, uuid.New())
		p := testutil.SeedProduct(t, f.db, sh.ID, 1000, 10)
		ids := []uuid.UUID{f.addToCart(t, p, 1)}
		f.wallet.On("Balance", mock.Anything, f.buyer).Return(decimal.NewFromInt(5000), nil)

		_, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{
			CartItemIDs:     ids,
			ShippingAddress: address(),
			UsedCoins:       decimal.NewFromInt(1480),
		})
		assert.True(t, shared.IsValidationError(err))
		assert.Equal(t, 10, testutil.ReloadProduct(t, f.db, p.ID).Stock)
	})

	t.Run("foreign cart lines", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{CartItemIDs: []uuid.UUID{uuid.New()}, ShippingAddress: address()})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("card processor down after coins were charged", func(t *testing.T) {
		f := newFixture(t)
		sh := testutil.SeedShop(t, f.db, uuid.New())
		p := testutil.SeedProduct(t, f.db, sh.ID, 1000, 10)
		ids := []uuid.UUID{f.addToCart(t, p, 2)}
		f.wallet.On("Balance", mock.Anything, f.buyer).Return(decimal.NewFromInt(300), nil)
		f.wallet.On("Charge", mock.Anything, f.buyer, amount(300), mock.Anything).Return("coin-9", nil)
		f.wallet.On("Refund", mock.Anything, "coin-9").Return(nil).Once()
		f.gateway.On("CreatePaymentIntent", mock.Anything, mock.Anything).Return(nil, shared.ErrExternalService)

		_, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{
			CartItemIDs:     ids,
			ShippingAddress: address(),
			UsedCoins:       decimal.NewFromInt(300),
		})
		assert.ErrorIs(t, err, shared.ErrExternalService)
		f.wallet.AssertExpectations(t)
		assert.Equal(t, 10, testutil.ReloadProduct(t, f.db, p.ID).Stock)

		orders, total, err := persistence.NewGormOrderRepository(f.db).FindByUser(ctx, f.buyer, shared.DefaultFilter())
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		assert.Equal(t, order.StatusCancelled, orders[0].Status)
		assert.Equal(t, payment.StatusFailed, f.transaction(t, *orders[0].PaymentTransactionID).Status)
	})
}

func TestOrderService_FailOrderPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sh := testutil.SeedShop(t, f.db, uuid.New())
	p := testutil.SeedProduct(t, f.db, sh.ID, 1000, 4)
	ids := []uuid.UUID{f.addToCart(t, p, 3)}
	f.expectIntent("pi_fail")

	resp, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{CartItemIDs: ids, ShippingAddress: address()})
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.ReloadProduct(t, f.db, p.ID).Stock)

	f.gateway.On("CancelPaymentIntent", mock.Anything, "pi_fail").Return(nil).Once()
	tx, err := f.svc.FailOrderPayment(ctx, resp.Payment.ID, "card_declined")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, tx.Status)
	assert.Equal(t, "card_declined", tx.FailureReason)
	assert.Equal(t, 4, testutil.ReloadProduct(t, f.db, p.ID).Stock)
	assert.Equal(t, 1, f.cartSize(t), "failed checkout keeps the cart")

	_, err = f.svc.FailOrderPayment(ctx, resp.Payment.ID, "card_declined")
	require.NoError(t, err)
	assert.Equal(t, 4, testutil.ReloadProduct(t, f.db, p.ID).Stock, "stock is restored once")
	f.gateway.AssertExpectations(t)

	_, err = f.svc.CompleteOrderPayment(ctx, resp.Payment.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestOrderService_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sh := testutil.SeedShop(t, f.db, uuid.New())
	p := testutil.SeedProduct(t, f.db, sh.ID, 1000, 4)
	ids := []uuid.UUID{f.addToCart(t, p, 1)}
	f.expectIntent("pi_cancel")

	resp, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{CartItemIDs: ids, ShippingAddress: address()})
	require.NoError(t, err)
	orderID := resp.Orders[0].ID

	_, err = f.svc.Cancel(ctx, uuid.New(), orderID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	f.gateway.On("CancelPaymentIntent", mock.Anything, "pi_cancel").Return(nil).Once()
	cancelled, err := f.svc.Cancel(ctx, f.buyer, orderID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, 4, testutil.ReloadProduct(t, f.db, p.ID).Stock)
	assert.Equal(t, payment.StatusCancelled, f.transaction(t, resp.Payment.ID).Status)

	_, err = f.svc.Cancel(ctx, f.buyer, orderID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	t.Run("card already captured", func(t *testing.T) {
		f := newFixture(t)
		sh := testutil.SeedShop(t, f.db, uuid.New())
		p := testutil.SeedProduct(t, f.db, sh.ID, 1000, 4)
		ids := []uuid.UUID{f.addToCart(t, p, 1)}
		f.expectIntent("pi_captured")

		resp, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{CartItemIDs: ids, ShippingAddress: address()})
		require.NoError(t, err)
		orderID := resp.Orders[0].ID
		f.gateway.On("CancelPaymentIntent", mock.Anything, "pi_captured").
			Return(errors.New("payment_intent_unexpected_state")).Once()

		_, err = f.svc.Cancel(ctx, f.buyer, orderID)
		assert.ErrorIs(t, err, shared.ErrExternalService)
		assert.Equal(t, payment.StatusPending, f.transaction(t, resp.Payment.ID).Status)
		assert.Equal(t, 3, testutil.ReloadProduct(t, f.db, p.ID).Stock, "stock stays with the order")

		got, err := f.svc.Get(ctx, f.buyer, orderID)
		require.NoError(t, err)
		assert.Equal(t, "pending", got.Status)

		_, err = f.svc.CompleteOrderPayment(ctx, resp.Payment.ID)
		require.NoError(t, err, "the captured payment still completes the order")
		assert.Equal(t, payment.StatusCompleted, f.transaction(t, resp.Payment.ID).Status)
		f.gateway.AssertNotCalled(t, "RefundPaymentIntent", mock.Anything, mock.Anything)
		f.gateway.AssertExpectations(t)
	})
}

func TestOrderService_ShipAndComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seller := testutil.TestSellerID()
	sh := testutil.SeedShop(t, f.db, seller)
	other := testutil.SeedShop(t, f.db, uuid.New())
	p := testutil.SeedProduct(t, f.db, sh.ID, 1000, 4)
	ids := []uuid.UUID{f.addToCart(t, p, 1)}
	f.expectIntent("pi_ship")

	resp, err := f.svc.Checkout(ctx, f.buyer, CheckoutRequest{CartItemIDs: ids, ShippingAddress: address()})
	require.NoError(t, err)
	orderID := resp.Orders[0].ID

	_, err = f.svc.Ship(ctx, seller, orderID, ShipOrderRequest{TrackingNumber: "JP123"})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "unpaid orders cannot ship")

	_, err = f.svc.CompleteOrderPayment(ctx, resp.Payment.ID)
	require.NoError(t, err)

	_, err = f.svc.Ship(ctx, other.UserID, orderID, ShipOrderRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.svc.Get(ctx, other.UserID, orderID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	shipped, err := f.svc.Ship(ctx, seller, orderID, ShipOrderRequest{TrackingNumber: " JP123 "})
	require.NoError(t, err)
	assert.Equal(t, "shipped", shipped.Status)
	assert.Equal(t, "JP123", shipped.TrackingNumber)
	assert.Contains(t, f.pub.Types(), order.EventTypeOrderShipped)

	_, err = f.svc.Complete(ctx, seller, orderID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "only the buyer confirms delivery")
	done, err := f.svc.Complete(ctx, f.buyer, orderID)
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)

	page, err := f.svc.ListShop(ctx, seller, OrderListFilter{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	page, err = f.svc.ListMine(ctx, f.buyer, OrderListFilter{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
}
