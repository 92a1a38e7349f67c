package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// RetryPolicy controls how long startup waits for the cache backend.
// Retries of zero means a single attempt.
type RetryPolicy struct {
	Retries uint64
	Backoff time.Duration // first delay; doubles per attempt
}

// DefaultRetryPolicy gives a cold redis a few seconds to come up.
var DefaultRetryPolicy = RetryPolicy{Retries: 5, Backoff: 250 * time.Millisecond}

type pinger interface {
	Ping(ctx context.Context) error
}

// Connect pings p until it answers or the policy is exhausted.
func Connect(ctx context.Context, p pinger, policy RetryPolicy) error {
	backoff := policy.Backoff
	if backoff <= 0 {
		backoff = DefaultRetryPolicy.Backoff
	}
	b := retry.WithMaxRetries(policy.Retries, retry.NewExponential(backoff))

	logger := slogx.FromContext(ctx)
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			logger.Warn("cache not reachable",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: cache unavailable after %d attempts: %w", attempt, err)
	}
	return nil
}
