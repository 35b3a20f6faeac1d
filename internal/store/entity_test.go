package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiktrack/tiktrack-server/internal/domain"
	"github.com/tiktrack/tiktrack-server/internal/store"
)

func setupEntityTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func testSubscription(id, userID string, status domain.SubscriptionStatus) *domain.Subscription {
	end := time.Now().Add(30 * 24 * time.Hour)
	return &domain.Subscription{
		ID:               id,
		UserID:           userID,
		Status:           status,
		CurrentPeriodEnd: &end,
		CustomerRef:      "cus_" + userID,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

func TestSubscriptions_CreateAndGet(t *testing.T) {
	s := setupEntityTestStore(t)
	ctx := context.Background()

	sub := testSubscription("sub_1", "user_a", domain.SubscriptionActive)
	require.NoError(t, s.Subscriptions.Create(ctx, sub.ID, sub))

	retrieved, err := s.Subscriptions.Get(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, retrieved.Status)
	assert.Equal(t, "user_a", retrieved.UserID)
}

func TestSubscriptions_Create_Duplicate(t *testing.T) {
	s := setupEntityTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Subscriptions.Create(ctx, "sub_1", testSubscription("sub_1", "user_a", domain.SubscriptionActive)))

	err := s.Subscriptions.Create(ctx, "sub_1", testSubscription("sub_1", "user_a", domain.SubscriptionActive))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestSubscriptions_UserIndexUnique(t *testing.T) {
	s := setupEntityTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Subscriptions.Create(ctx, "sub_1", testSubscription("sub_1", "user_a", domain.SubscriptionActive)))

	// A second subscription record for the same user violates the user index
	err := s.Subscriptions.Create(ctx, "sub_2", testSubscription("sub_2", "user_a", domain.SubscriptionTrialing))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestSubscriptions_GetByUserIndex(t *testing.T) {
	s := setupEntityTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Subscriptions.Create(ctx, "sub_1", testSubscription("sub_1", "user_a", domain.SubscriptionActive)))
	require.NoError(t, s.Subscriptions.Create(ctx, "sub_2", testSubscription("sub_2", "user_b", domain.SubscriptionCanceled)))

	sub, err := s.Subscriptions.GetByIndex(ctx, "user", "user_b")
	require.NoError(t, err)
	assert.Equal(t, "sub_2", sub.ID)

	_, err = s.Subscriptions.GetByIndex(ctx, "user", "user_c")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubscriptions_Update(t *testing.T) {
	s := setupEntityTestStore(t)
	ctx := context.Background()

	sub := testSubscription("sub_1", "user_a", domain.SubscriptionActive)
	require.NoError(t, s.Subscriptions.Create(ctx, sub.ID, sub))

	sub.Status = domain.SubscriptionPastDue
	require.NoError(t, s.Subscriptions.Update(ctx, sub.ID, sub))

	retrieved, err := s.Subscriptions.Get(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPastDue, retrieved.Status)
}

func TestSubscriptions_Update_NotFound(t *testing.T) {
	s := setupEntityTestStore(t)

	err := s.Subscriptions.Update(context.Background(), "sub_missing", testSubscription("sub_missing", "user_a", domain.SubscriptionActive))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubscriptions_Delete(t *testing.T) {
	s := setupEntityTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Subscriptions.Create(ctx, "sub_1", testSubscription("sub_1", "user_a", domain.SubscriptionActive)))
	require.NoError(t, s.Subscriptions.Delete(ctx, "sub_1"))

	_, err := s.Subscriptions.Get(ctx, "sub_1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Index is cleaned up, so the user can get a fresh record
	assert.NoError(t, s.Subscriptions.Create(ctx, "sub_2", testSubscription("sub_2", "user_a", domain.SubscriptionActive)))

	// Idempotent
	assert.NoError(t, s.Subscriptions.Delete(ctx, "sub_1"))
}

func TestSubscriptions_List(t *testing.T) {
	s := setupEntityTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Subscriptions.Create(ctx, "sub_1", testSubscription("sub_1", "user_a", domain.SubscriptionActive)))
	require.NoError(t, s.Subscriptions.Create(ctx, "sub_2", testSubscription("sub_2", "user_b", domain.SubscriptionCanceled)))

	var count int
	for sub, err := range s.Subscriptions.List(ctx) {
		require.NoError(t, err)
		require.NotNil(t, sub)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestSubscriptions_List_StopsEarly(t *testing.T) {
	s := setupEntityTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Subscriptions.Create(ctx, "sub_1", testSubscription("sub_1", "user_a", domain.SubscriptionActive)))
	require.NoError(t, s.Subscriptions.Create(ctx, "sub_2", testSubscription("sub_2", "user_b", domain.SubscriptionActive)))

	var count int
	for _, err := range s.Subscriptions.List(ctx) {
		require.NoError(t, err)
		count++
		break
	}
	assert.Equal(t, 1, count)
}
