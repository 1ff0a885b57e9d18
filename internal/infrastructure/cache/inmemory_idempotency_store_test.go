package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/infrastructure/config"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first mark wins", func(t *testing.T) {
		first, err := store.MarkProcessed(ctx, "evt_1", time.Hour)
		require.NoError(t, err)
		assert.True(t, first)

		second, err := store.MarkProcessed(ctx, "evt_1", time.Hour)
		require.NoError(t, err)
		assert.False(t, second)

		processed, err := store.IsProcessed(ctx, "evt_1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("expired ids can be claimed again", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "evt_2", 10*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)

		again, err := store.MarkProcessed(ctx, "evt_2", time.Hour)
		require.NoError(t, err)
		assert.True(t, again)
	})

	t.Run("unmark allows retry", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "evt_3", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Unmark(ctx, "evt_3"))

		processed, err := store.IsProcessed(ctx, "evt_3")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("sweep drops expired ids", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "evt_4", time.Nanosecond)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		before := store.Len()
		store.sweep()
		assert.Less(t, store.Len(), before)
	})

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	type rates struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}

	var miss rates
	found, err := c.Get(ctx, "JPY", &miss)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "JPY", rates{Base: "JPY", Rates: map[string]float64{"USD": 0.0067}}, time.Minute))
	var hit rates
	found, err = c.Get(ctx, "JPY", &hit)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.0067, hit.Rates["USD"])

	now := time.Now()
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	found, err = c.Get(ctx, "JPY", &hit)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", 1, 0))
	require.NoError(t, c.Delete(ctx, "k"))
	var n int
	found, err = c.Get(ctx, "k", &n)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewStores_WithoutRedis(t *testing.T) {
	stores, err := NewStores(context.Background(), config.RedisConfig{}, false, zap.NewNop())
	require.NoError(t, err)
	defer stores.Close()

	assert.Nil(t, stores.Client)
	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	assert.IsType(t, &MemoryCache{}, stores.Exchange)
}
