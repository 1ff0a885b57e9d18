// Package payment coordinates the coin wallet and the card processor for
// checkout payments. Order and booking services own the transaction
// lifecycle; this package moves the money and undoes it on failure.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/telemetry"
)

// PaymentService charges and releases the funds of payment transactions
type PaymentService struct {
	txRepo    payment.TransactionRepository
	gateway   payment.Gateway
	wallet    payment.CoinWallet
	minCharge decimal.Decimal
	metrics   *telemetry.Metrics
	logger    *zap.Logger
}

// Option configures a PaymentService
type Option func(*PaymentService)

// WithMinCharge overrides the smallest fiat amount the card processor accepts
func WithMinCharge(amount decimal.Decimal) Option {
	return func(s *PaymentService) {
		s.minCharge = amount
	}
}

// WithMetrics records settled payments
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *PaymentService) {
		s.metrics = m
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	txRepo payment.TransactionRepository,
	gateway payment.Gateway,
	wallet payment.CoinWallet,
	logger *zap.Logger,
	opts ...Option,
) *PaymentService {
	s := &PaymentService{
		txRepo:    txRepo,
		gateway:   gateway,
		wallet:    wallet,
		minCharge: payment.MinStripeChargeJPY,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Balance returns the user's coin balance. The wallet is not called when
// no coins are requested.
func (s *PaymentService) Balance(ctx context.Context, userID uuid.UUID, requested decimal.Decimal) (decimal.Decimal, error) {
	if !requested.IsPositive() {
		return decimal.Zero, nil
	}
	return s.wallet.Balance(ctx, userID)
}

// Split divides tx between coins and fiat
func (s *PaymentService) Split(tx *payment.Transaction, requested, balance decimal.Decimal) error {
	split, err := payment.CalculateSplit(tx.TotalAmount, requested, balance, s.minCharge)
	if err != nil {
		return err
	}
	return tx.ApplySplit(split)
}

// Settle charges the coin part of a split transaction, then opens a card
// payment for the fiat part, and stores the references. A failed step
// undoes the earlier ones, so on error no money has moved. A coin-only
// transaction stays pending; the caller completes it.
func (s *PaymentService) Settle(ctx context.Context, tx *payment.Transaction, description string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "PaymentService", "Settle",
		telemetry.AttrTransactionID, tx.ID.String(),
		telemetry.AttrAmount, tx.TotalAmount.String(),
	)
	defer span.End()

	if tx.CoinAmount.IsPositive() {
		coinTxID, err := s.wallet.Charge(ctx, tx.UserID, tx.CoinAmount, tx.ID.String())
		if err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		tx.AttachCoinCharge(coinTxID)
	}

	if tx.RequiresStripe() {
		intent, err := s.gateway.CreatePaymentIntent(ctx, payment.IntentRequest{
			TransactionID: tx.ID,
			UserID:        tx.UserID,
			Kind:          tx.Kind,
			Amount:        tx.FiatAmount,
			Currency:      tx.Currency,
			Description:   description,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			s.refundCoins(ctx, tx)
			return err
		}
		tx.AttachPaymentIntent(intent.ID, intent.ClientSecret)
	}

	if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("failed to store payment references, releasing funds",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err),
		)
		_ = s.ReleaseFunds(ctx, tx)
		return err
	}
	return nil
}

// ReleaseFunds cancels the open card payment and refunds charged coins.
// Every step is attempted; failures are logged and joined.
func (s *PaymentService) ReleaseFunds(ctx context.Context, tx *payment.Transaction) error {
	var errs []error
	if tx.StripePaymentIntentID != "" {
		if err := s.gateway.CancelPaymentIntent(ctx, tx.StripePaymentIntentID); err != nil {
			s.logger.Error("failed to cancel payment intent",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("payment_intent_id", tx.StripePaymentIntentID),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if err := s.refundCoins(ctx, tx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Void cancels the card payment of a still pending transaction and, once
// that succeeded, refunds its coins. An error means the card payment may
// still go through and the transaction must stay open. Coin refund
// failures are only logged.
func (s *PaymentService) Void(ctx context.Context, tx *payment.Transaction) error {
	if tx.StripePaymentIntentID != "" {
		if err := s.gateway.CancelPaymentIntent(ctx, tx.StripePaymentIntentID); err != nil {
			s.logger.Warn("payment intent could not be cancelled",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("payment_intent_id", tx.StripePaymentIntentID),
				zap.Error(err),
			)
			return err
		}
	}
	_ = s.refundCoins(ctx, tx)
	return nil
}

// RefundFunds returns the money of a transaction whose card payment already
// succeeded, e.g. when the booked seats were gone at finalization.
func (s *PaymentService) RefundFunds(ctx context.Context, tx *payment.Transaction) error {
	var errs []error
	if tx.StripePaymentIntentID != "" {
		if err := s.gateway.RefundPaymentIntent(ctx, tx.StripePaymentIntentID); err != nil {
			s.logger.Error("failed to refund card payment",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("payment_intent_id", tx.StripePaymentIntentID),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if err := s.refundCoins(ctx, tx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Settled records the final state of a transaction in metrics
func (s *PaymentService) Settled(tx *payment.Transaction) {
	s.metrics.PaymentSettled(string(tx.Kind), string(tx.Status))
}

// GetTransaction returns one of the user's transactions
func (s *PaymentService) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.IsOwnedBy(userID) {
		return nil, shared.NewApiError(shared.CodeNotFound, "Payment not found")
	}
	resp := ToTransactionResponse(tx)
	return &resp, nil
}

func (s *PaymentService) refundCoins(ctx context.Context, tx *payment.Transaction) error {
	if !tx.HasCoinCharge() {
		return nil
	}
	if err := s.wallet.Refund(ctx, tx.CoinTransactionID); err != nil {
		s.logger.Error("failed to refund coins",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("coin_transaction_id", tx.CoinTransactionID),
			zap.String("amount", tx.CoinAmount.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
