// Package idx mints the ULID identifiers used for user records and request
// IDs. IDs sort by creation time, so listing newest first is a plain
// descending sort on the ID column.
package idx

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID string.
type ID string

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// Source hands out IDs that are strictly increasing within the same
// millisecond. It is safe for concurrent use.
type Source struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSource builds a Source over r. Tests pass a fixed reader to get
// reproducible IDs.
func NewSource(r io.Reader) *Source {
	return &Source{entropy: ulid.Monotonic(r, 0)}
}

// At returns an ID stamped with t.
func (s *Source) At(t time.Time) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t.UTC()), s.entropy).String())
}

var std = NewSource(rand.Reader)

// New returns an ID stamped with the current time.
func New() ID { return std.At(time.Now()) }

// NewAt returns an ID stamped with t.
func NewAt(t time.Time) ID { return std.At(t) }

// Parse validates s and returns it as an ID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", ErrInvalid
	}
	return ID(s), nil
}

// Valid reports whether s is a well formed ID.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (id ID) String() string { return string(id) }

// Time is the creation time embedded in id, or the zero time when id is
// malformed.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
