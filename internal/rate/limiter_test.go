package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenBlocks(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 2})
	now := time.Now()
	l.now = func() time.Time { return now }
	l.last = now

	assert.Zero(t, l.reserve())
	assert.Zero(t, l.reserve())
	assert.Equal(t, time.Second, l.reserve())

	now = now.Add(2 * time.Second)
	assert.Zero(t, l.reserve(), "tokens refill at the configured rate")
}

func TestLimiter_ReserveReportsWait(t *testing.T) {
	l := New(Config{RequestsPerSecond: 4, Burst: 1})
	now := time.Now()
	l.now = func() time.Time { return now }
	l.last = now

	assert.Equal(t, time.Duration(0), l.reserve())
	assert.Equal(t, 250*time.Millisecond, l.reserve())
}

func TestLimiter_ZeroRateDisablesLimiting(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 100; i++ {
		require.Zero(t, l.reserve())
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 1})
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_OneLimiterPerKey(t *testing.T) {
	m := NewManager[uint64](Config{RequestsPerSecond: 5, Burst: 5})
	a := m.GetLimiter(1)
	b := m.GetLimiter(100)

	assert.Same(t, a, m.GetLimiter(1))
	assert.NotSame(t, a, b)
	require.NoError(t, m.GetLimiter(1).Wait(context.Background()))
}
