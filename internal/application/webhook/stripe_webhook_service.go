// Package webhook applies Stripe payment events to checkout transactions.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	stripepay "github.com/teebalk/marketplace/internal/infrastructure/payment"
	"github.com/teebalk/marketplace/internal/infrastructure/telemetry"
)

// MaxPayloadBytes is the largest webhook body accepted
const MaxPayloadBytes = 64 << 10

// dedupeTTL is how long a delivered event id is remembered
const dedupeTTL = 24 * time.Hour

// OrderPayments settles product order transactions
type OrderPayments interface {
	CompleteOrderPayment(ctx context.Context, transactionID uuid.UUID) (*payment.Transaction, error)
	FailOrderPayment(ctx context.Context, transactionID uuid.UUID, reason string) (*payment.Transaction, error)
}

// BookingPayments settles experience booking transactions
type BookingPayments interface {
	FinalizePayment(ctx context.Context, transactionID uuid.UUID) (*experience.Order, error)
	FailPayment(ctx context.Context, transactionID uuid.UUID, reason string) (*payment.Transaction, error)
}

// Transactions finds the transaction an intent references
type Transactions interface {
	FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error)
}

// StripeWebhookService handles Stripe webhook events
type StripeWebhookService struct {
	webhookSecret string
	transactions  Transactions
	orders        OrderPayments
	bookings      BookingPayments
	idempotency   shared.IdempotencyStore
	metrics       *telemetry.Metrics
	logger        *zap.Logger
}

// StripeWebhookServiceConfig contains configuration for StripeWebhookService
type StripeWebhookServiceConfig struct {
	WebhookSecret string
	Transactions  Transactions
	Orders        OrderPayments
	Bookings      BookingPayments
	Idempotency   shared.IdempotencyStore
	Metrics       *telemetry.Metrics
	Logger        *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	return &StripeWebhookService{
		webhookSecret: cfg.WebhookSecret,
		transactions:  cfg.Transactions,
		orders:        cfg.Orders,
		bookings:      cfg.Bookings,
		idempotency:   cfg.Idempotency,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// ProcessWebhook verifies and applies a Stripe event. Each event id is
// applied once; a failed attempt is forgotten so Stripe's retry runs again.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if len(payload) > MaxPayloadBytes {
		return nil, shared.NewValidationError("webhook payload too large")
	}
	if signature == "" {
		return nil, shared.NewValidationError("missing Stripe-Signature header")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Warn("Failed to verify webhook signature", zap.Error(err))
		return nil, shared.NewValidationError("webhook signature verification failed")
	}

	eventType := string(event.Type)
	result := &WebhookResult{EventID: event.ID, EventType: eventType, Processed: true}

	fresh, err := s.idempotency.MarkProcessed(ctx, "stripe:"+event.ID, dedupeTTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable, processing anyway",
			zap.String("event_id", event.ID),
			zap.Error(err))
		fresh = true
	}
	if !fresh {
		s.metrics.WebhookEvent(eventType, "duplicate")
		result.Processed = false
		result.Message = "Event already processed"
		return result, nil
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", eventType))

	switch event.Type {
	case "payment_intent.succeeded":
		err = s.handlePaymentSucceeded(ctx, event)
	case "payment_intent.payment_failed", "payment_intent.canceled":
		err = s.handlePaymentFailed(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type", zap.String("event_type", eventType))
		s.metrics.WebhookEvent(eventType, "ignored")
		result.Message = "Event type not handled"
		return result, nil
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", eventType),
			zap.Error(err))
		if unmarkErr := s.idempotency.Unmark(ctx, "stripe:"+event.ID); unmarkErr != nil {
			s.logger.Warn("Failed to unmark webhook event", zap.String("event_id", event.ID), zap.Error(unmarkErr))
		}
		s.metrics.WebhookEvent(eventType, "error")
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	s.metrics.WebhookEvent(eventType, "processed")
	return result, nil
}

// reference identifies the transaction an intent pays for
type reference struct {
	transactionID uuid.UUID
	kind          payment.Kind
}

func (s *StripeWebhookService) decode(event stripe.Event) (*stripe.PaymentIntent, *reference, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}
	id, err := uuid.Parse(pi.Metadata[stripepay.MetadataTransactionID])
	if err != nil {
		s.logger.Warn("Payment intent has no transaction reference, skipping",
			zap.String("payment_intent_id", pi.ID))
		return &pi, nil, nil
	}
	return &pi, &reference{transactionID: id, kind: payment.Kind(pi.Metadata[stripepay.MetadataKind])}, nil
}

// known reports whether the referenced transaction exists. Only this lookup
// decides that an event is for nobody; a not-found from settling the
// transaction is a failure Stripe should retry.
func (s *StripeWebhookService) known(ctx context.Context, pi *stripe.PaymentIntent, ref *reference) (bool, error) {
	_, err := s.transactions.FindByID(ctx, ref.transactionID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, shared.ErrNotFound):
		s.logger.Warn("Transaction not found for payment intent",
			zap.String("payment_intent_id", pi.ID),
			zap.String("transaction_id", ref.transactionID.String()))
		return false, nil
	}
	return false, fmt.Errorf("failed to load transaction: %w", err)
}

// handlePaymentSucceeded handles payment_intent.succeeded events
func (s *StripeWebhookService) handlePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	pi, ref, err := s.decode(event)
	if err != nil || ref == nil {
		return err
	}
	if ok, err := s.known(ctx, pi, ref); !ok {
		return err
	}

	switch ref.kind {
	case payment.KindProductOrder:
		_, err = s.orders.CompleteOrderPayment(ctx, ref.transactionID)
	case payment.KindExperienceOrder:
		_, err = s.bookings.FinalizePayment(ctx, ref.transactionID)
	default:
		s.logger.Warn("Unknown payment kind, skipping",
			zap.String("payment_intent_id", pi.ID),
			zap.String("kind", string(ref.kind)))
		return nil
	}
	return s.acknowledge(err, pi, ref)
}

// handlePaymentFailed handles payment_intent.payment_failed and
// payment_intent.canceled events
func (s *StripeWebhookService) handlePaymentFailed(ctx context.Context, event stripe.Event) error {
	pi, ref, err := s.decode(event)
	if err != nil || ref == nil {
		return err
	}
	if ok, err := s.known(ctx, pi, ref); !ok {
		return err
	}

	reason := "payment " + string(pi.Status)
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		reason = pi.LastPaymentError.Msg
	}
	if event.Type == "payment_intent.canceled" {
		reason = "payment cancelled"
	}

	switch ref.kind {
	case payment.KindProductOrder:
		_, err = s.orders.FailOrderPayment(ctx, ref.transactionID, reason)
	case payment.KindExperienceOrder:
		_, err = s.bookings.FailPayment(ctx, ref.transactionID, reason)
	default:
		s.logger.Warn("Unknown payment kind, skipping",
			zap.String("payment_intent_id", pi.ID),
			zap.String("kind", string(ref.kind)))
		return nil
	}
	return s.acknowledge(err, pi, ref)
}

// acknowledge decides which failures Stripe should retry. Outcomes that a
// retry cannot change are logged and acknowledged.
func (s *StripeWebhookService) acknowledge(err error, pi *stripe.PaymentIntent, ref *reference) error {
	if err == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("payment_intent_id", pi.ID),
		zap.String("transaction_id", ref.transactionID.String()),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, shared.ErrReservationExpired):
		s.logger.Warn("Booking rejected after payment, funds refunded", fields...)
		return nil
	case errors.Is(err, shared.ErrInvalidState):
		// e.g. a success arriving for a transaction that was already
		// failed; the charge needs a manual refund
		s.logger.Error("Payment event for a closed transaction", fields...)
		return nil
	}
	return err
}
