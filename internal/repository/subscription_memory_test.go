package repository

import (
	"context"
	"testing"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseSubscriptionStore runs the behaviour every backend must share.
func exerciseSubscriptionStore(t *testing.T, store repository.SubscriptionStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Upsert(ctx, &models.Subscription{UserID: "u1", ChatID: "100"}))
	require.NoError(t, store.Upsert(ctx, &models.Subscription{UserID: "u2", ChatID: "200"}))
	require.NoError(t, store.Upsert(ctx, &models.Subscription{UserID: "u1", ChatID: "300"}))

	sub, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "300", sub.ChatID)

	sub, err = store.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "200", sub.ChatID)

	assert.ErrorIs(t, store.Upsert(ctx, &models.Subscription{UserID: "u3"}), repository.ErrInvalidInput)
}

func TestMemorySubscriptionStore(t *testing.T) {
	exerciseSubscriptionStore(t, NewMemorySubscriptionStore())
}

func TestMemorySubscriptionStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySubscriptionStore()
	require.NoError(t, store.Upsert(ctx, &models.Subscription{UserID: "u", ChatID: "1"}))

	sub, err := store.Get(ctx, "u")
	require.NoError(t, err)
	sub.ChatID = "mutated"

	again, err := store.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "1", again.ChatID)
}
