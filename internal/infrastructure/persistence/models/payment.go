package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// PaymentTransactionModel is the persistence model for payment transactions
type PaymentTransactionModel struct {
	AggregateModel
	UserID                uuid.UUID       `gorm:"type:char(36);not null;index"`
	Kind                  payment.Kind    `gorm:"type:varchar(32);not null"`
	Status                payment.Status  `gorm:"type:varchar(20);not null;index"`
	Currency              string          `gorm:"type:varchar(3);not null"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	FiatAmount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CoinAmount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	StripePaymentIntentID string          `gorm:"type:varchar(255);index"`
	StripeClientSecret    string          `gorm:"type:varchar(255)"`
	CoinTransactionID     string          `gorm:"type:varchar(64)"`
	FailureReason         string          `gorm:"type:varchar(500)"`
	CompletedAt           *time.Time
}

// TableName returns the table name for GORM
func (PaymentTransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the model to a domain Transaction
func (m *PaymentTransactionModel) ToDomain() *payment.Transaction {
	return &payment.Transaction{
		BaseAggregateRoot:     m.ToAggregateRoot(),
		UserID:                m.UserID,
		Kind:                  m.Kind,
		Status:                m.Status,
		Currency:              shared.Currency(m.Currency),
		TotalAmount:           m.TotalAmount,
		FiatAmount:            m.FiatAmount,
		CoinAmount:            m.CoinAmount,
		StripePaymentIntentID: m.StripePaymentIntentID,
		StripeClientSecret:    m.StripeClientSecret,
		CoinTransactionID:     m.CoinTransactionID,
		FailureReason:         m.FailureReason,
		CompletedAt:           utcPtr(m.CompletedAt),
	}
}

// PaymentTransactionModelFromDomain creates a model from a domain Transaction
func PaymentTransactionModelFromDomain(t *payment.Transaction) *PaymentTransactionModel {
	m := &PaymentTransactionModel{
		UserID:                t.UserID,
		Kind:                  t.Kind,
		Status:                t.Status,
		Currency:              string(t.Currency),
		TotalAmount:           t.TotalAmount,
		FiatAmount:            t.FiatAmount,
		CoinAmount:            t.CoinAmount,
		StripePaymentIntentID: t.StripePaymentIntentID,
		StripeClientSecret:    t.StripeClientSecret,
		CoinTransactionID:     t.CoinTransactionID,
		FailureReason:         t.FailureReason,
		CompletedAt:           t.CompletedAt,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}
