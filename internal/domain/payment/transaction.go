package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// Kind identifies what a transaction pays for
type Kind string

const (
	KindProductOrder    Kind = "product_order"
	KindExperienceOrder Kind = "experience_order"
)

// Status represents the payment lifecycle
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsFinal reports whether no further transition is allowed
func (s Status) IsFinal() bool {
	return s != StatusPending
}

// Transaction records one checkout payment. The total is split into a coin
// part settled by the coin service and a fiat part charged through Stripe.
type Transaction struct {
	shared.BaseAggregateRoot
	UserID                uuid.UUID
	Kind                  Kind
	Status                Status
	Currency              shared.Currency
	TotalAmount           decimal.Decimal
	FiatAmount            decimal.Decimal
	CoinAmount            decimal.Decimal
	StripePaymentIntentID string
	StripeClientSecret    string
	CoinTransactionID     string
	FailureReason         string
	CompletedAt           *time.Time
}

// NewTransaction creates a pending transaction for total
func NewTransaction(userID uuid.UUID, kind Kind, total decimal.Decimal) (*Transaction, error) {
	if total.IsNegative() {
		return nil, shared.NewFieldValidationError("total", "total cannot be negative")
	}
	if kind != KindProductOrder && kind != KindExperienceOrder {
		return nil, shared.NewFieldValidationError("kind", "unknown payment kind")
	}
	return &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Kind:              kind,
		Status:            StatusPending,
		Currency:          shared.DefaultCurrency,
		TotalAmount:       total,
		FiatAmount:        total,
		CoinAmount:        decimal.Zero,
	}, nil
}

// ApplySplit records how the total is divided between coins and fiat
func (t *Transaction) ApplySplit(s Split) error {
	if t.Status != StatusPending {
		return t.invalidTransition("split")
	}
	if !s.Coin.Add(s.Fiat).Equal(t.TotalAmount) {
		return shared.NewApiError(shared.CodeInvalidState, "Payment split does not add up to the total")
	}
	t.CoinAmount = s.Coin
	t.FiatAmount = s.Fiat
	t.Touch()
	return nil
}

// AttachPaymentIntent records the Stripe intent charging the fiat part
func (t *Transaction) AttachPaymentIntent(intentID, clientSecret string) {
	t.StripePaymentIntentID = intentID
	t.StripeClientSecret = clientSecret
	t.Touch()
}

// AttachCoinCharge records the coin service transaction
func (t *Transaction) AttachCoinCharge(coinTransactionID string) {
	t.CoinTransactionID = coinTransactionID
	t.Touch()
}

// Split returns the recorded division between coins and fiat
func (t *Transaction) Split() Split {
	return Split{Coin: t.CoinAmount, Fiat: t.FiatAmount}
}

// RequiresStripe reports whether a fiat amount must be charged
func (t *Transaction) RequiresStripe() bool {
	return !t.Split().IsCoinOnly()
}

// HasCoinCharge reports whether coins were taken from the user's wallet
func (t *Transaction) HasCoinCharge() bool {
	return t.CoinTransactionID != ""
}

// Complete marks the transaction settled. Completing twice is a no-op so
// redelivered webhooks are harmless. Returns true if the state changed.
func (t *Transaction) Complete() (bool, error) {
	if t.Status == StatusCompleted {
		return false, nil
	}
	if t.Status != StatusPending {
		return false, t.invalidTransition(string(StatusCompleted))
	}
	now := shared.Now()
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.StripeClientSecret = ""
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTransactionCompletedEvent(t))
	return true, nil
}

// Fail marks the transaction failed
func (t *Transaction) Fail(reason string) (bool, error) {
	if t.Status == StatusFailed {
		return false, nil
	}
	if t.Status != StatusPending {
		return false, t.invalidTransition(string(StatusFailed))
	}
	t.Status = StatusFailed
	t.FailureReason = reason
	t.StripeClientSecret = ""
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTransactionFailedEvent(t))
	return true, nil
}

// Cancel marks the transaction cancelled by the buyer or by expiry
func (t *Transaction) Cancel(reason string) (bool, error) {
	if t.Status == StatusCancelled {
		return false, nil
	}
	if t.Status != StatusPending {
		return false, t.invalidTransition(string(StatusCancelled))
	}
	t.Status = StatusCancelled
	t.FailureReason = reason
	t.StripeClientSecret = ""
	t.Touch()
	t.IncrementVersion()
	return true, nil
}

// IsOwnedBy reports whether userID pays the transaction
func (t *Transaction) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}

func (t *Transaction) invalidTransition(to string) error {
	return shared.NewApiError(shared.CodeInvalidState,
		fmt.Sprintf("Payment %s is %s and cannot be %s", t.ID, t.Status, to))
}
