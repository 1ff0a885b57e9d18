package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence/models"
)

// GormPaymentTransactionRepository implements payment.TransactionRepository
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewGormPaymentTransactionRepository creates a new repository
func NewGormPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormPaymentTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	var model models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Payment transaction")
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the transaction with SELECT ... FOR UPDATE so
// concurrent webhook deliveries serialize on the row
func (r *GormPaymentTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	var model models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Payment transaction")
	}
	return model.ToDomain(), nil
}

// FindByPaymentIntentID finds the transaction charged by a Stripe intent
func (r *GormPaymentTransactionRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*payment.Transaction, error) {
	var model models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "stripe_payment_intent_id = ?", intentID).Error; err != nil {
		return nil, translate(err, "Payment transaction")
	}
	return model.ToDomain(), nil
}

// Save creates or updates a transaction
func (r *GormPaymentTransactionRepository) Save(ctx context.Context, t *payment.Transaction) error {
	if err := r.db.WithContext(ctx).Save(models.PaymentTransactionModelFromDomain(t)).Error; err != nil {
		return translate(err, "Payment transaction")
	}
	t.MarkPersisted()
	return nil
}

// SaveWithLock updates the transaction with an optimistic version check
func (r *GormPaymentTransactionRepository) SaveWithLock(ctx context.Context, t *payment.Transaction) error {
	if t.PersistedVersion() == 0 {
		return r.Save(ctx, t)
	}
	result := r.db.WithContext(ctx).
		Model(&models.PaymentTransactionModel{}).
		Where("id = ? AND version = ?", t.ID, t.PersistedVersion()).
		Updates(map[string]any{
			"status":                   t.Status,
			"fiat_amount":              t.FiatAmount,
			"coin_amount":              t.CoinAmount,
			"stripe_payment_intent_id": t.StripePaymentIntentID,
			"stripe_client_secret":     t.StripeClientSecret,
			"coin_transaction_id":      t.CoinTransactionID,
			"failure_reason":           t.FailureReason,
			"completed_at":             t.CompletedAt,
			"version":                  t.Version,
			"updated_at":               t.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("Payment transaction")
	}
	t.MarkPersisted()
	return nil
}

var _ payment.TransactionRepository = (*GormPaymentTransactionRepository)(nil)
