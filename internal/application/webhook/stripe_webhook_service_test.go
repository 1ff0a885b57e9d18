package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/cache"
)

const testSecret = "whsec_test"

// MockOrderPayments is a mock implementation of OrderPayments
type MockOrderPayments struct {
	mock.Mock
}

func (m *MockOrderPayments) CompleteOrderPayment(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockOrderPayments) FailOrderPayment(ctx context.Context, id uuid.UUID, reason string) (*payment.Transaction, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

// MockBookingPayments is a mock implementation of BookingPayments
type MockBookingPayments struct {
	mock.Mock
}

func (m *MockBookingPayments) FinalizePayment(ctx context.Context, id uuid.UUID) (*experience.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*experience.Order), args.Error(1)
}

func (m *MockBookingPayments) FailPayment(ctx context.Context, id uuid.UUID, reason string) (*payment.Transaction, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

// stubTransactions finds every transaction except the missing ones
type stubTransactions struct {
	missing map[uuid.UUID]bool
}

func (s *stubTransactions) FindByID(_ context.Context, id uuid.UUID) (*payment.Transaction, error) {
	if s.missing[id] {
		return nil, shared.NewApiError(shared.CodeNotFound, "Payment transaction not found")
	}
	return &payment.Transaction{}, nil
}

type fixture struct {
	svc      *StripeWebhookService
	txs      *stubTransactions
	orders   *MockOrderPayments
	bookings *MockBookingPayments
	store    *cache.InMemoryIdempotencyStore
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		txs:      &stubTransactions{missing: map[uuid.UUID]bool{}},
		orders:   new(MockOrderPayments),
		bookings: new(MockBookingPayments),
		store:    cache.NewInMemoryIdempotencyStore(),
		logs:     logs,
	}
	t.Cleanup(func() { _ = f.store.Close() })
	f.svc = NewStripeWebhookService(StripeWebhookServiceConfig{
		WebhookSecret: testSecret,
		Transactions:  f.txs,
		Orders:        f.orders,
		Bookings:      f.bookings,
		Idempotency:   f.store,
		Logger:        zap.New(core),
	})
	return f
}

// signedEvent builds a Stripe event around a payment intent and signs it
// the way Stripe does
func signedEvent(t *testing.T, eventID, eventType string, intent map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": intent},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testSecret})
	return signed.Payload, signed.Header
}

func intent(txID uuid.UUID, kind payment.Kind) map[string]any {
	return map[string]any{
		"id":     "pi_" + txID.String()[:8],
		"object": "payment_intent",
		"status": "succeeded",
		"metadata": map[string]string{
			"payment_transaction_id": txID.String(),
			"kind":                   string(kind),
		},
	}
}

func TestStripeWebhookService_ProcessWebhook_InvalidSignature(t *testing.T) {
	f := newFixture(t)
	payload, _ := signedEvent(t, "evt_bad", "payment_intent.succeeded", intent(uuid.New(), payment.KindProductOrder))

	result, err := f.svc.ProcessWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.Nil(t, result)
	assert.True(t, shared.IsValidationError(err))

	_, err = f.svc.ProcessWebhook(context.Background(), payload, "")
	assert.True(t, shared.IsValidationError(err))

	_, err = f.svc.ProcessWebhook(context.Background(), []byte(strings.Repeat("x", MaxPayloadBytes+1)), "t=1,v1=x")
	assert.True(t, shared.IsValidationError(err))
}

func TestStripeWebhookService_PaymentSucceeded(t *testing.T) {
	ctx := context.Background()

	t.Run("completes product orders once", func(t *testing.T) {
		f := newFixture(t)
		txID := uuid.New()
		f.orders.On("CompleteOrderPayment", mock.Anything, txID).Return(&payment.Transaction{}, nil).Once()
		payload, sig := signedEvent(t, "evt_1", "payment_intent.succeeded", intent(txID, payment.KindProductOrder))

		result, err := f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		assert.True(t, result.Processed)
		assert.Equal(t, "evt_1", result.EventID)

		result, err = f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		assert.False(t, result.Processed, "redelivery is deduplicated")
		f.orders.AssertExpectations(t)
	})

	t.Run("finalizes bookings", func(t *testing.T) {
		f := newFixture(t)
		txID := uuid.New()
		f.bookings.On("FinalizePayment", mock.Anything, txID).Return(&experience.Order{}, nil).Once()
		payload, sig := signedEvent(t, "evt_2", "payment_intent.succeeded", intent(txID, payment.KindExperienceOrder))

		_, err := f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		f.bookings.AssertExpectations(t)
		f.orders.AssertNotCalled(t, "CompleteOrderPayment", mock.Anything, mock.Anything)
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		f := newFixture(t)
		txID := uuid.New()
		f.orders.On("CompleteOrderPayment", mock.Anything, txID).Return(nil, errors.New("db down")).Once()
		f.orders.On("CompleteOrderPayment", mock.Anything, txID).Return(&payment.Transaction{}, nil).Once()
		payload, sig := signedEvent(t, "evt_3", "payment_intent.succeeded", intent(txID, payment.KindProductOrder))

		result, err := f.svc.ProcessWebhook(ctx, payload, sig)
		assert.Error(t, err)
		assert.False(t, result.Processed)

		result, err = f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		assert.True(t, result.Processed)
		f.orders.AssertExpectations(t)
	})

	t.Run("closed transaction is acknowledged", func(t *testing.T) {
		f := newFixture(t)
		txID := uuid.New()
		f.bookings.On("FinalizePayment", mock.Anything, txID).Return(nil, shared.ErrInvalidState)
		payload, sig := signedEvent(t, "evt_4", "payment_intent.succeeded", intent(txID, payment.KindExperienceOrder))

		result, err := f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		assert.True(t, result.Processed)
		entries := f.logs.FilterMessage("Payment event for a closed transaction").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	})

	t.Run("unknown transaction is acknowledged", func(t *testing.T) {
		f := newFixture(t)
		txID := uuid.New()
		f.txs.missing[txID] = true
		payload, sig := signedEvent(t, "evt_9", "payment_intent.succeeded", intent(txID, payment.KindExperienceOrder))

		result, err := f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		assert.True(t, result.Processed)
		assert.Equal(t, 1, f.logs.FilterMessage("Transaction not found for payment intent").Len())
		f.bookings.AssertNotCalled(t, "FinalizePayment", mock.Anything, mock.Anything)
	})

	t.Run("not found while settling is retried", func(t *testing.T) {
		f := newFixture(t)
		txID := uuid.New()
		f.bookings.On("FinalizePayment", mock.Anything, txID).
			Return(nil, shared.NewApiError(shared.CodeNotFound, "Session not found")).Once()
		payload, sig := signedEvent(t, "evt_10", "payment_intent.succeeded", intent(txID, payment.KindExperienceOrder))

		result, err := f.svc.ProcessWebhook(ctx, payload, sig)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.False(t, result.Processed)
		assert.Zero(t, f.logs.FilterMessage("Transaction not found for payment intent").Len())

		fresh, err := f.store.MarkProcessed(ctx, "stripe:evt_10", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh, "failed delivery is forgotten so the retry runs")
		f.bookings.AssertExpectations(t)
	})

	t.Run("intent without a transaction reference", func(t *testing.T) {
		f := newFixture(t)
		payload, sig := signedEvent(t, "evt_5", "payment_intent.succeeded", map[string]any{
			"id": "pi_foreign", "object": "payment_intent", "status": "succeeded",
		})
		_, err := f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		assert.Equal(t, 1, f.logs.FilterMessage("Payment intent has no transaction reference, skipping").Len())
	})
}

func TestStripeWebhookService_PaymentFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the decline message", func(t *testing.T) {
		f := newFixture(t)
		txID := uuid.New()
		pi := intent(txID, payment.KindProductOrder)
		pi["status"] = "requires_payment_method"
		pi["last_payment_error"] = map[string]any{"message": "Your card was declined."}
		f.orders.On("FailOrderPayment", mock.Anything, txID, "Your card was declined.").Return(&payment.Transaction{}, nil)
		payload, sig := signedEvent(t, "evt_6", "payment_intent.payment_failed", pi)

		_, err := f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		f.orders.AssertExpectations(t)
	})

	t.Run("cancelled booking payment", func(t *testing.T) {
		f := newFixture(t)
		txID := uuid.New()
		pi := intent(txID, payment.KindExperienceOrder)
		pi["status"] = "canceled"
		f.bookings.On("FailPayment", mock.Anything, txID, "payment cancelled").Return(&payment.Transaction{}, nil)
		payload, sig := signedEvent(t, "evt_7", "payment_intent.canceled", pi)

		_, err := f.svc.ProcessWebhook(ctx, payload, sig)
		require.NoError(t, err)
		f.bookings.AssertExpectations(t)
	})
}

func TestStripeWebhookService_IgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	payload, sig := signedEvent(t, "evt_8", "charge.refunded", map[string]any{"id": "ch_1", "object": "charge"})

	result, err := f.svc.ProcessWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.Equal(t, "Event type not handled", result.Message)
	f.orders.AssertNotCalled(t, "CompleteOrderPayment", mock.Anything, mock.Anything)
}
