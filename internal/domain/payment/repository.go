package payment

import (
	"context"

	"github.com/google/uuid"
)

// TransactionRepository defines persistence for payment transactions
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// FindByIDForUpdate loads the row with a write lock inside a transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*Transaction, error)
	Save(ctx context.Context, t *Transaction) error
	SaveWithLock(ctx context.Context, t *Transaction) error
}
