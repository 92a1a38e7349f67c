// Package session tracks the one live session marker each user may hold.
//
// A marker is written on login and removed on logout, password reset and
// account deletion. A refresh or access token is only honoured while its
// user still has a marker, so dropping the marker revokes every token the
// user holds without tracking tokens individually.
package session

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL matches the refresh token lifetime.
const DefaultTTL = 60 * time.Minute

var ErrEmptyUserID = errors.New("session: empty user id")

// Cache stores session markers keyed by user id. A second Set for the same
// user replaces the first.
type Cache interface {
	Set(ctx context.Context, userID, marker string, ttl time.Duration) error

	// Get returns ok=false when there is no live marker. err is reserved for
	// backend failures.
	Get(ctx context.Context, userID string) (marker string, ok bool, err error)

	// Delete is idempotent.
	Delete(ctx context.Context, userID string) error

	Ping(ctx context.Context) error
	Close() error
}
