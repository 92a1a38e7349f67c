package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func testUser(email string, now time.Time) domain.User {
	return domain.User{
		Record:       domain.NewRecord(now),
		Name:         "Alice Example",
		Email:        email,
		PasswordHash: "$2a$12$not-a-real-hash",
		Role:         domain.RoleUser,
	}
}

func TestUsers_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	u := testUser("alice@example.com", now)
	u.VerificationDigest = "digest-1"
	require.NoError(t, st.Users().CreateUser(ctx, u))

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.False(t, got.Verified)
	assert.Equal(t, "digest-1", got.VerificationDigest)
	assert.Empty(t, got.PasswordResetDigest)
	assert.Nil(t, got.PasswordResetExpiresAt)
	assert.True(t, got.CreatedAt.Equal(now))

	byEmail, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byDigest, err := st.Users().GetUserByVerificationDigest(ctx, "digest-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byDigest.ID)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now()

	require.NoError(t, st.Users().CreateUser(ctx, testUser("dup@example.com", now)))

	err := st.Users().CreateUser(ctx, testUser("dup@example.com", now))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_NotFound(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Users().GetUserByVerificationDigest(ctx, "")
	require.ErrorIs(t, err, store.ErrNotFound, "an empty digest must never match a verified user")

	err = st.Users().DeleteUser(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = st.Users().UpdateUser(ctx, testUser("ghost@example.com", time.Now()))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_UpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	u := testUser("bob@example.com", now)
	u.VerificationDigest = "code"
	require.NoError(t, st.Users().CreateUser(ctx, u))

	u.MarkVerified(now.Add(time.Minute))
	u.Role = domain.RoleAdmin
	expires := now.Add(10 * time.Minute)
	u.PasswordResetDigest = "reset"
	u.PasswordResetExpiresAt = &expires
	require.NoError(t, st.Users().UpdateUser(ctx, u))

	got, err := st.Users().GetUserByResetDigest(ctx, "reset")
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Empty(t, got.VerificationDigest)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	require.NotNil(t, got.PasswordResetExpiresAt)
	assert.True(t, got.PasswordResetExpiresAt.Equal(expires))
	assert.True(t, got.UpdatedAt.Equal(now.Add(time.Minute)))

	_, err = st.Users().GetUserByVerificationDigest(ctx, "code")
	require.ErrorIs(t, err, store.ErrNotFound, "a used code must not resolve again")
}

func TestUsers_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := testUser("first@example.com", base)
	second := testUser("second@example.com", base.Add(time.Hour))
	require.NoError(t, st.Users().CreateUser(ctx, first))
	require.NoError(t, st.Users().CreateUser(ctx, second))

	users, err := st.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, second.ID, users[0].ID, "newest first")
	assert.Equal(t, first.ID, users[1].ID)

	require.NoError(t, st.Users().DeleteUser(ctx, first.ID))

	users, err = st.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, second.ID, users[0].ID)
}

func TestUsers_ClearExpiredResetTokens(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	expired := testUser("expired@example.com", now)
	past := now.Add(-time.Minute)
	expired.PasswordResetDigest = "old"
	expired.PasswordResetExpiresAt = &past

	live := testUser("live@example.com", now)
	future := now.Add(time.Minute)
	live.PasswordResetDigest = "new"
	live.PasswordResetExpiresAt = &future

	require.NoError(t, st.Users().CreateUser(ctx, expired))
	require.NoError(t, st.Users().CreateUser(ctx, live))

	n, err := st.Users().ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = st.Users().GetUserByResetDigest(ctx, "old")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := st.Users().GetUserByResetDigest(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	boom := errors.New("boom")

	u := testUser("tx@example.com", time.Now())
	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, u))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	err = st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	})
	require.NoError(t, err)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
}

func TestStore_Ping(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}
