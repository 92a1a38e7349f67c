package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/observability"
	"github.com/aussiebroadwan/accounts/internal/accounts/session"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/idx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// UserService is the read and admin side of the directory. Role checks
// happen at the route layer.
type UserService struct {
	Store   store.Store
	Cache   session.Cache
	Metrics *observability.Metrics
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes the account and its session marker, so tokens already
// handed out stop refreshing.
func (s *UserService) DeleteUser(ctx context.Context, id string) (err error) {
	defer func() { s.Metrics.RecordAuthEvent(observability.EventDeleteUser, outcome(err)) }()

	if !idx.Valid(id) {
		return ErrUserNotFound
	}
	// Marker goes first: a cache failure must leave the account in place.
	if err := s.Cache.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: end session: %w", err)
	}

	if err := s.Store.Users().DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	slogx.FromContext(ctx).Info("user deleted", slog.String("user_id", id))
	return nil
}

// SetRole changes a user's role. Used by the promote command.
func (s *UserService) SetRole(ctx context.Context, email string, role domain.Role) (domain.User, error) {
	var out domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		u.Role = role
		u.Touch(timeNow())
		out = u
		return tx.Users().UpdateUser(ctx, u)
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("set role: %w", err)
	}
	return out, nil
}
