package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// AggregateTypeTransaction is the aggregate type for payment events
const AggregateTypeTransaction = "PaymentTransaction"

const (
	EventTypeTransactionCompleted = "PaymentCompleted"
	EventTypeTransactionFailed    = "PaymentFailed"
)

// TransactionCompletedEvent is published when a payment settles
type TransactionCompletedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Kind          Kind            `json:"kind"`
	Total         decimal.Decimal `json:"total"`
	Coin          decimal.Decimal `json:"coin"`
	Fiat          decimal.Decimal `json:"fiat"`
}

// NewTransactionCompletedEvent creates a new TransactionCompletedEvent
func NewTransactionCompletedEvent(t *Transaction) *TransactionCompletedEvent {
	return &TransactionCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCompleted, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		UserID:          t.UserID,
		Kind:            t.Kind,
		Total:           t.TotalAmount,
		Coin:            t.CoinAmount,
		Fiat:            t.FiatAmount,
	}
}

// TransactionFailedEvent is published when a payment fails
type TransactionFailedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	Kind          Kind      `json:"kind"`
	Reason        string    `json:"reason"`
}

// NewTransactionFailedEvent creates a new TransactionFailedEvent
func NewTransactionFailedEvent(t *Transaction) *TransactionFailedEvent {
	return &TransactionFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionFailed, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		UserID:          t.UserID,
		Kind:            t.Kind,
		Reason:          t.FailureReason,
	}
}
