package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
)

// fakeBackend implements stripe.Backend and records calls
type fakeBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
	calls   []string
}

func (f *fakeBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	f.calls = append(f.calls, method+" "+path)
	data, err := f.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (f *fakeBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (f *fakeBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (f *fakeBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (f *fakeBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func newTestGateway(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) (*StripeGateway, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{handler: handler}
	g, err := NewStripeGateway(config.StripeConfig{SecretKey: "sk_test_123"}, backend, zap.NewNop())
	require.NoError(t, err)
	return g, backend
}

func TestNewStripeGateway_RequiresKey(t *testing.T) {
	_, err := NewStripeGateway(config.StripeConfig{}, &fakeBackend{}, zap.NewNop())
	assert.Error(t, err)
}

func TestStripeGateway_CreatePaymentIntent(t *testing.T) {
	txID := uuid.New()
	var sent *stripe.PaymentIntentParams
	g, _ := newTestGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		require.Equal(t, http.MethodPost, method)
		require.Equal(t, "/v1/payment_intents", path)
		sent = params.(*stripe.PaymentIntentParams)
		return json.Marshal(&stripe.PaymentIntent{
			ID:           "pi_123",
			ClientSecret: "pi_123_secret_abc",
			Amount:       *sent.Amount,
			Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		})
	})

	intent, err := g.CreatePaymentIntent(context.Background(), payment.IntentRequest{
		TransactionID: txID,
		UserID:        uuid.New(),
		Kind:          payment.KindExperienceOrder,
		Amount:        decimal.NewFromInt(4500),
		Currency:      shared.JPY,
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, int64(4500), *sent.Amount)
	assert.Equal(t, "jpy", *sent.Currency)
	assert.Equal(t, txID.String(), sent.Metadata[MetadataTransactionID])
	assert.Equal(t, "experience_order", sent.Metadata[MetadataKind])
	assert.Equal(t, "pi-"+txID.String(), *sent.IdempotencyKey)
}

func TestStripeGateway_CreatePaymentIntent_Errors(t *testing.T) {
	t.Run("non positive amount", func(t *testing.T) {
		g, backend := newTestGateway(t, nil)
		_, err := g.CreatePaymentIntent(context.Background(), payment.IntentRequest{Amount: decimal.Zero})
		assert.True(t, shared.IsValidationError(err))
		assert.Empty(t, backend.calls)
	})

	t.Run("card declined", func(t *testing.T) {
		g, _ := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, Msg: "Your card was declined"}
		})
		_, err := g.CreatePaymentIntent(context.Background(), payment.IntentRequest{TransactionID: uuid.New(), Amount: decimal.NewFromInt(100)})
		assert.ErrorIs(t, err, shared.ErrPaymentFailed)
	})

	t.Run("api unavailable", func(t *testing.T) {
		g, _ := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, fmt.Errorf("connection reset")
		})
		_, err := g.CreatePaymentIntent(context.Background(), payment.IntentRequest{TransactionID: uuid.New(), Amount: decimal.NewFromInt(100)})
		assert.ErrorIs(t, err, shared.ErrExternalService)
	})
}

func TestStripeGateway_CancelPaymentIntent(t *testing.T) {
	t.Run("cancels", func(t *testing.T) {
		g, backend := newTestGateway(t, func(method, path string, _ stripe.ParamsContainer) ([]byte, error) {
			return json.Marshal(&stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusCanceled})
		})
		require.NoError(t, g.CancelPaymentIntent(context.Background(), "pi_1"))
		assert.Equal(t, []string{"POST /v1/payment_intents/pi_1/cancel"}, backend.calls)
	})

	t.Run("already cancelled is fine", func(t *testing.T) {
		g, _ := newTestGateway(t, func(method, path string, _ stripe.ParamsContainer) ([]byte, error) {
			if method == http.MethodPost {
				return nil, &stripe.Error{Code: stripe.ErrorCodePaymentIntentUnexpectedState}
			}
			return json.Marshal(&stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusCanceled})
		})
		assert.NoError(t, g.CancelPaymentIntent(context.Background(), "pi_1"))
	})

	t.Run("succeeded intent cannot be cancelled", func(t *testing.T) {
		g, _ := newTestGateway(t, func(method, path string, _ stripe.ParamsContainer) ([]byte, error) {
			if method == http.MethodPost {
				return nil, &stripe.Error{Code: stripe.ErrorCodePaymentIntentUnexpectedState}
			}
			return json.Marshal(&stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusSucceeded})
		})
		assert.ErrorIs(t, g.CancelPaymentIntent(context.Background(), "pi_1"), shared.ErrInvalidState)
	})
}

func TestStripeGateway_RefundPaymentIntent(t *testing.T) {
	var sent *stripe.RefundParams
	g, backend := newTestGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		sent = params.(*stripe.RefundParams)
		return json.Marshal(&stripe.Refund{ID: "re_1"})
	})

	require.NoError(t, g.RefundPaymentIntent(context.Background(), "pi_9"))
	assert.Equal(t, []string{"POST /v1/refunds"}, backend.calls)
	assert.Equal(t, "pi_9", *sent.PaymentIntent)
	assert.Equal(t, "refund-pi_9", *sent.IdempotencyKey)
}
