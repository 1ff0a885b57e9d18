package payment

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

func newTestTransaction(t *testing.T, total int64) *Transaction {
	t.Helper()
	tx, err := NewTransaction(uuid.New(), KindExperienceOrder, decimal.NewFromInt(total))
	require.NoError(t, err)
	return tx
}

func TestNewTransaction(t *testing.T) {
	tx := newTestTransaction(t, 3000)

	assert.Equal(t, StatusPending, tx.Status)
	assert.Equal(t, shared.JPY, tx.Currency)
	assert.True(t, tx.FiatAmount.Equal(decimal.NewFromInt(3000)))
	assert.True(t, tx.CoinAmount.IsZero())
	assert.True(t, tx.RequiresStripe())

	_, err := NewTransaction(uuid.New(), Kind("gift"), decimal.NewFromInt(1))
	assert.True(t, shared.IsValidationError(err))
	_, err = NewTransaction(uuid.New(), KindProductOrder, decimal.NewFromInt(-1))
	assert.True(t, shared.IsValidationError(err))
}

func TestTransaction_ApplySplit(t *testing.T) {
	tx := newTestTransaction(t, 3000)

	require.NoError(t, tx.ApplySplit(Split{Coin: d(1000), Fiat: d(2000)}))
	assert.False(t, tx.Split().IsCoinOnly())
	assert.True(t, tx.RequiresStripe())

	require.NoError(t, tx.ApplySplit(Split{Coin: d(3000), Fiat: d(0)}))
	assert.True(t, tx.Split().IsCoinOnly())
	assert.False(t, tx.RequiresStripe())

	err := tx.ApplySplit(Split{Coin: d(100), Fiat: d(100)})
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestTransaction_Complete(t *testing.T) {
	tx := newTestTransaction(t, 3000)
	tx.AttachPaymentIntent("pi_123", "pi_123_secret")

	changed, err := tx.Complete()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusCompleted, tx.Status)
	assert.NotNil(t, tx.CompletedAt)
	assert.Empty(t, tx.StripeClientSecret)
	require.Len(t, tx.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeTransactionCompleted, tx.GetDomainEvents()[0].EventType())

	changed, err = tx.Complete()
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = tx.Fail("late failure")
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestTransaction_FailAndCancel(t *testing.T) {
	tx := newTestTransaction(t, 1000)
	changed, err := tx.Fail("card_declined")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "card_declined", tx.FailureReason)

	changed, err = tx.Fail("again")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = tx.Complete()
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	other := newTestTransaction(t, 1000)
	changed, err = other.Cancel("expired")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, other.Status.IsFinal())
}

func TestTransaction_CoinCharge(t *testing.T) {
	tx := newTestTransaction(t, 1000)
	assert.False(t, tx.HasCoinCharge())
	tx.AttachCoinCharge("coin_tx_1")
	assert.True(t, tx.HasCoinCharge())
	assert.True(t, tx.IsOwnedBy(tx.UserID))
}
