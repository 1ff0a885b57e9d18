package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
)

// Metadata keys written on every PaymentIntent. Webhooks route on them.
const (
	MetadataTransactionID = "payment_transaction_id"
	MetadataKind          = "kind"
	MetadataUserID        = "user_id"
)

// StripeGateway implements payment.Gateway with PaymentIntents
type StripeGateway struct {
	intents *paymentintent.Client
	refunds *refund.Client
	logger  *zap.Logger
}

// NewStripeGateway creates a gateway. A nil backend uses the default
// Stripe API backend; tests pass a fake.
func NewStripeGateway(cfg config.StripeConfig, backend stripe.Backend, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeGateway{
		intents: &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		refunds: &refund.Client{B: backend, Key: cfg.SecretKey},
		logger:  logger,
	}, nil
}

// CreatePaymentIntent creates an intent for the fiat amount. The
// transaction ID doubles as idempotency key so a retried checkout never
// creates a second charge.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewFieldValidationError("amount", "card amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = shared.DefaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(shared.ToMinorUnits(req.Amount, currency)),
		Currency: stripe.String(strings.ToLower(currency.String())),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			MetadataTransactionID: req.TransactionID.String(),
			MetadataKind:          string(req.Kind),
			MetadataUserID:        req.UserID.String(),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	params.SetIdempotencyKey("pi-" + req.TransactionID.String())

	pi, err := g.intents.New(params)
	if err != nil {
		g.logger.Error("Failed to create payment intent",
			zap.String("transaction_id", req.TransactionID.String()),
			zap.Error(err))
		return nil, stripeError("create payment intent", err)
	}

	g.logger.Info("Created payment intent",
		zap.String("transaction_id", req.TransactionID.String()),
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("amount", pi.Amount))

	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// CancelPaymentIntent cancels an intent the buyer abandoned
func (g *StripeGateway) CancelPaymentIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	_, err := g.intents.Cancel(intentID, params)
	if err == nil {
		g.logger.Info("Cancelled payment intent", zap.String("payment_intent_id", intentID))
		return nil
	}

	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Code == stripe.ErrorCodePaymentIntentUnexpectedState {
		getParams := &stripe.PaymentIntentParams{}
		getParams.Context = ctx
		pi, getErr := g.intents.Get(intentID, getParams)
		if getErr == nil && pi.Status == stripe.PaymentIntentStatusCanceled {
			return nil
		}
		return shared.WrapApiError(shared.CodeInvalidState, "Payment can no longer be cancelled", err)
	}
	g.logger.Error("Failed to cancel payment intent", zap.String("payment_intent_id", intentID), zap.Error(err))
	return stripeError("cancel payment intent", err)
}

// RefundPaymentIntent refunds the full captured amount
func (g *StripeGateway) RefundPaymentIntent(ctx context.Context, intentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + intentID)

	r, err := g.refunds.New(params)
	if err != nil {
		g.logger.Error("Failed to refund payment intent", zap.String("payment_intent_id", intentID), zap.Error(err))
		return stripeError("refund payment intent", err)
	}
	g.logger.Info("Refunded payment intent",
		zap.String("payment_intent_id", intentID),
		zap.String("refund_id", r.ID))
	return nil
}

// stripeError maps card declines to PAYMENT_FAILED and everything else to
// EXTERNAL_SERVICE_ERROR
func stripeError(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
		return shared.WrapApiError(shared.CodePaymentFailed, serr.Msg, err)
	}
	return shared.WrapApiError(shared.CodeExternalService, "Payment provider unavailable", fmt.Errorf("stripe: %s: %w", op, err))
}

var _ payment.Gateway = (*StripeGateway)(nil)
