package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories hang off it so a Tx exposes exactly the
// same surface as the store it came from.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. An error from fn rolls back,
	// nil commits.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user. A duplicate email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and password reset requests.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByVerificationDigest finds the user holding an unused
	// verification code digest.
	GetUserByVerificationDigest(ctx context.Context, digest string) (domain.User, error)

	// GetUserByResetDigest finds the user holding a password reset digest.
	// Expiry is checked by the caller.
	GetUserByResetDigest(ctx context.Context, digest string) (domain.User, error)

	// UpdateUser overwrites every mutable column of an existing user.
	UpdateUser(ctx context.Context, u domain.User) error

	// DeleteUser removes a user; ErrNotFound when nothing was deleted.
	DeleteUser(ctx context.Context, id string) error

	// ListUsers returns every user, newest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// ClearExpiredResetTokens drops reset digests that expired before now and
	// returns how many users were touched.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
