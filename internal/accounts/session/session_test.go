package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/accounts/internal/accounts/session"
)

// runCacheContract exercises behaviour every Cache must share. expire moves
// the backend's clock past ttl.
func runCacheContract(t *testing.T, c session.Cache, expire func(time.Duration)) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "u1", "marker-1", time.Minute))

		marker, ok, err := c.Get(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "marker-1", marker)
	})

	t.Run("last write wins", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "u2", "first", time.Minute))
		require.NoError(t, c.Set(ctx, "u2", "second", time.Minute))

		marker, ok, err := c.Get(ctx, "u2")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "second", marker)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "u3", "marker", time.Minute))
		require.NoError(t, c.Delete(ctx, "u3"))
		require.NoError(t, c.Delete(ctx, "u3"))

		_, ok, err := c.Get(ctx, "u3")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expires", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "u4", "marker", time.Second))
		expire(2 * time.Second)

		_, ok, err := c.Get(ctx, "u4")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty user id", func(t *testing.T) {
		err := c.Set(ctx, "", "marker", time.Minute)
		require.ErrorIs(t, err, session.ErrEmptyUserID)
	})

	require.NoError(t, c.Ping(ctx))
}

func TestMemoryCache(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := session.NewMemoryCache().WithClock(func() time.Time { return now })

	runCacheContract(t, c, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := session.NewRedisCache(client)
	t.Cleanup(func() { _ = c.Close() })

	runCacheContract(t, c, mr.FastForward)

	t.Run("key layout", func(t *testing.T) {
		require.NoError(t, c.Set(context.Background(), "01HUSER", "m", time.Minute))
		assert.True(t, mr.Exists("session:01HUSER"))
		assert.Equal(t, time.Minute, mr.TTL("session:01HUSER"))
	})
}

func TestRedisCache_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := session.NewRedisCache(redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	}))
	t.Cleanup(func() { _ = c.Close() })

	mr.Close()

	_, ok, err := c.Get(context.Background(), "u1")
	require.Error(t, err, "an unreachable backend is an error, not a missing session")
	assert.False(t, ok)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := session.OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0", session.RetryPolicy{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Ping(context.Background()))
}

func TestOpenRedis_BadURL(t *testing.T) {
	_, err := session.OpenRedis(context.Background(), "not a url", session.RetryPolicy{})
	require.Error(t, err)
}

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		retries   uint64
		wantErr   bool
		wantCalls int
	}{
		{name: "first try", failures: 0, retries: 3, wantCalls: 1},
		{name: "recovers", failures: 2, retries: 3, wantCalls: 3},
		{name: "gives up", failures: 10, retries: 2, wantErr: true, wantCalls: 3},
		{name: "policy disabled", failures: 1, retries: 0, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &flakyPinger{failures: tt.failures}
			err := session.Connect(context.Background(), p, session.RetryPolicy{
				Retries: tt.retries,
				Backoff: time.Millisecond,
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, p.calls)
		})
	}
}
