package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/payment"
)

// TransactionResponse is the buyer's view of a payment. ClientSecret is
// only present while the card payment still awaits confirmation.
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	Kind            string          `json:"kind"`
	Status          string          `json:"status"`
	Currency        string          `json:"currency"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	FiatAmount      decimal.Decimal `json:"fiat_amount"`
	CoinAmount      decimal.Decimal `json:"coin_amount"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	ClientSecret    string          `json:"client_secret,omitempty"`
	FailureReason   string          `json:"failure_reason,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToTransactionResponse converts a domain Transaction to TransactionResponse
func ToTransactionResponse(t *payment.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              t.ID,
		Kind:            string(t.Kind),
		Status:          string(t.Status),
		Currency:        t.Currency.String(),
		TotalAmount:     t.TotalAmount,
		FiatAmount:      t.FiatAmount,
		CoinAmount:      t.CoinAmount,
		PaymentIntentID: t.StripePaymentIntentID,
		FailureReason:   t.FailureReason,
		CompletedAt:     t.CompletedAt,
		CreatedAt:       t.CreatedAt,
	}
	if t.Status == payment.StatusPending {
		resp.ClientSecret = t.StripeClientSecret
	}
	return resp
}
