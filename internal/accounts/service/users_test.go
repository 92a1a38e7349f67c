package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/session"
)

// undeletableCache refuses to drop markers.
type undeletableCache struct{ session.Cache }

func (undeletableCache) Delete(context.Context, string) error {
	return errors.New("cache unavailable")
}

func TestUserService_GetAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice, _ := h.register(t, "Alice", "alice@example.com")
	bob, _ := h.register(t, "Bob", "bob@example.com")

	got, err := h.users.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = h.users.GetUser(ctx, "missing")
	require.ErrorIs(t, err, service.ErrNotFound)

	users, err := h.users.ListUsers(ctx)
	require.NoError(t, err)
	ids := []string{users[0].ID, users[1].ID}
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, ids)
}

func TestUserService_DeleteUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, _ := h.register(t, "Alice", "alice@example.com")

	res, err := h.auth.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	require.NoError(t, h.users.DeleteUser(ctx, alice.ID))

	_, live, err := h.cache.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, live, "delete ends the session")

	_, err = h.auth.Refresh(ctx, res.Tokens.RefreshToken)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	err = h.users.DeleteUser(ctx, alice.ID)
	require.ErrorIs(t, err, service.ErrUserNotFound)
	require.ErrorIs(t, err, service.ErrNotFound)

	err = h.users.DeleteUser(ctx, "not-an-id")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_DeleteUserKeepsAccountWhenCacheFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, _ := h.register(t, "Alice", "alice@example.com")

	_, err := h.auth.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)

	broken := &service.UserService{Store: h.store, Cache: undeletableCache{h.cache}}
	require.Error(t, broken.DeleteUser(ctx, alice.ID))

	_, err = h.users.GetUser(ctx, alice.ID)
	require.NoError(t, err, "the account survives so the delete can be retried")

	require.NoError(t, h.users.DeleteUser(ctx, alice.ID))
	_, err = h.users.GetUser(ctx, alice.ID)
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUserService_SetRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, _ := h.register(t, "Alice", "alice@example.com")

	u, err := h.users.SetRole(ctx, "ALICE@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	stored, err := h.store.Users().GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)

	_, err = h.users.SetRole(ctx, "nobody@example.com", domain.RoleAdmin)
	require.ErrorIs(t, err, service.ErrUserNotFound)
}
