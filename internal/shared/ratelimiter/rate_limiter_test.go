package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock は sleep 呼び出しで時刻を進めるテスト用の時計です。
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(limit int, interval time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, interval)
	rl.now = clock.Now
	rl.sleep = clock.Sleep
	rl.lastReset = clock.now
	return rl, clock
}

func TestRateLimiter_AllowsUpToLimitWithoutWaiting(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(3, time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.WaitIfNeeded(context.Background()))
	}
	assert.Empty(t, clock.sleeps)
}

func TestRateLimiter_WaitsForNextWindow(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(1, time.Second)

	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	clock.now = clock.now.Add(300 * time.Millisecond)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 700*time.Millisecond, clock.sleeps[0])
}

func TestRateLimiter_ResetsAfterInterval(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(1, time.Second)

	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	clock.now = clock.now.Add(2 * time.Second)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	assert.Empty(t, clock.sleeps)
}

func TestRateLimiter_CanceledContext(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(1, time.Second)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.WaitIfNeeded(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRateLimiter_MinimumLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0, time.Second)
	assert.Equal(t, 1, rl.limit)
}
