package domain

import (
	"time"

	"github.com/aussiebroadwan/accounts/pkg/idx"
)

// Record is the identity and bookkeeping every persisted entity embeds.
type Record struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord stamps a fresh ULID and creation time.
func NewRecord(now time.Time) Record {
	now = now.UTC()
	return Record{
		ID:        idx.NewAt(now).String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt.
func (r *Record) Touch(now time.Time) { r.UpdatedAt = now.UTC() }
