package ratelimit

import (
	"context"
	"net/netip"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClock allows controlling time in tests
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *mockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

type decisionCounter struct {
	allowed, denied atomic.Int32
}

func (d *decisionCounter) RateLimitDecision(allowed bool) {
	if allowed {
		d.allowed.Add(1)
	} else {
		d.denied.Add(1)
	}
}

func TestCooldown_DenialsDoNotMoveWindow(t *testing.T) {
	const cooldown = 10 * time.Second
	clock := newMockClock()
	t0 := clock.Now()
	limiter := NewCooldown(cooldown, WithClock(clock.Now))
	ctx := context.Background()
	ip := netip.MustParseAddr("203.0.113.7")

	attempts := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{cooldown / 2, false},
		{cooldown * 9 / 10, false},
		{cooldown * 3 / 2, true},
		{cooldown*3/2 + time.Second, false},
	}

	for _, a := range attempts {
		clock.Set(t0.Add(a.at))
		assert.Equal(t, a.want, limiter.Allow(ctx, ip), "attempt at t0+%s", a.at)
	}
}

func TestCooldown_ExactCooldownIsAllowed(t *testing.T) {
	clock := newMockClock()
	limiter := NewCooldown(time.Minute, WithClock(clock.Now))
	ip := netip.MustParseAddr("198.51.100.1")

	require.True(t, limiter.Allow(context.Background(), ip))
	clock.Set(clock.Now().Add(time.Minute))
	assert.True(t, limiter.Allow(context.Background(), ip), "elapsed == cooldown is allowed")
}

func TestCooldown_LongIdleDoesNotBank(t *testing.T) {
	clock := newMockClock()
	limiter := NewCooldown(time.Minute, WithClock(clock.Now))
	ctx := context.Background()
	ip := netip.MustParseAddr("198.51.100.2")

	require.True(t, limiter.Allow(ctx, ip))
	clock.Set(clock.Now().Add(24 * time.Hour))
	assert.True(t, limiter.Allow(ctx, ip))
	assert.False(t, limiter.Allow(ctx, ip), "a day of idling still buys one post")

	clock.Set(clock.Now().Add(time.Minute - time.Nanosecond))
	assert.False(t, limiter.Allow(ctx, ip))
}

func TestCooldown_IdentitiesAreIndependent(t *testing.T) {
	obs := &decisionCounter{}
	limiter := NewCooldown(time.Hour, WithObserver(obs))
	ctx := context.Background()

	a := netip.MustParseAddr("10.0.0.1")
	b := netip.MustParseAddr("2001:db8::1")

	assert.True(t, limiter.Allow(ctx, a))
	assert.True(t, limiter.Allow(ctx, b))
	assert.False(t, limiter.Allow(ctx, a))
	assert.Equal(t, 2, limiter.Len())
	assert.Equal(t, int32(2), obs.allowed.Load())
	assert.Equal(t, int32(1), obs.denied.Load())
}

func TestCooldown_ConcurrentCallersGetOneAcceptance(t *testing.T) {
	limiter := NewCooldown(time.Hour)
	ip := netip.MustParseAddr("192.0.2.10")

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow(context.Background(), ip) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}

func TestCooldown_ZeroCooldownAlwaysAllows(t *testing.T) {
	limiter := NewCooldown(0)
	ip := netip.MustParseAddr("192.0.2.11")
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(context.Background(), ip))
	}
	assert.Equal(t, time.Duration(0), limiter.Cooldown())
}
