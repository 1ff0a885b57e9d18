package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// IntentRequest describes the fiat part of a transaction to charge
type IntentRequest struct {
	TransactionID uuid.UUID
	UserID        uuid.UUID
	Kind          Kind
	Amount        decimal.Decimal
	Currency      shared.Currency
	Description   string
}

// Intent is a created card payment awaiting confirmation by the buyer
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Gateway charges fiat money through the card processor
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// CancelPaymentIntent cancels an unconfirmed intent. Intents that are
	// already cancelled are not an error.
	CancelPaymentIntent(ctx context.Context, intentID string) error
	// RefundPaymentIntent refunds a succeeded intent in full
	RefundPaymentIntent(ctx context.Context, intentID string) error
}

// CoinWallet settles coin amounts with the coin payment service
type CoinWallet interface {
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	// Charge debits amount coins and returns the coin transaction ID
	Charge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (string, error)
	Refund(ctx context.Context, coinTransactionID string) error
}
