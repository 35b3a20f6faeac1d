package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiktrack/tiktrack-server/internal/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func testUser(id, email string) *domain.User {
	user := &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hashed_password",
		DisplayName:  "Test User",
	}
	user.InitTimestamps()
	return user
}

func TestCreateUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := testUser("user_test123", "test@example.com")

	err := s.CreateUser(ctx, user)
	require.NoError(t, err)

	// Verify user can be retrieved
	retrieved, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, user.Email, retrieved.Email)
	assert.Equal(t, user.DisplayName, retrieved.DisplayName)
}

func TestCreateUser_DuplicateID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := testUser("user_test123", "test@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	// Second creation with same ID fails
	err := s.CreateUser(ctx, testUser("user_test123", "other@example.com"))
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("user_one", "test@example.com")))

	// Same email, different case - still rejected
	err := s.CreateUser(ctx, testUser("user_two", "TEST@Example.COM"))
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestGetUser_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetUser(context.Background(), "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByEmail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := testUser("user_test123", "Creator@Example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	// Lookup is case-insensitive
	retrieved, err := s.GetUserByEmail(ctx, "creator@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)

	_, err = s.GetUserByEmail(ctx, "unknown@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := testUser("user_test123", "test@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	originalUpdated := user.UpdatedAt
	time.Sleep(10 * time.Millisecond)

	user.DisplayName = "Renamed"
	require.NoError(t, s.UpdateUser(ctx, user))

	retrieved, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", retrieved.DisplayName)
	assert.True(t, retrieved.UpdatedAt.After(originalUpdated))
}

func TestUpdateUser_EmailChange(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := testUser("user_test123", "old@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	user.Email = "new@example.com"
	require.NoError(t, s.UpdateUser(ctx, user))

	// Old email no longer resolves, new one does
	_, err := s.GetUserByEmail(ctx, "old@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	retrieved, err := s.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
}

func TestUpdateUser_EmailTaken(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("user_one", "one@example.com")))
	other := testUser("user_two", "two@example.com")
	require.NoError(t, s.CreateUser(ctx, other))

	other.Email = "one@example.com"
	err := s.UpdateUser(ctx, other)
	assert.ErrorIs(t, err, ErrEmailExists)
}
