// Package ratelimit gates the guestbook write endpoint with a per-identity cooldown.
package ratelimit

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/homepage/logger"
)

// Limiter decides whether an identity may act now.
// Allow is also the only mutator: an accepted call records the action.
type Limiter interface {
	Allow(ctx context.Context, id netip.Addr) bool
}

// Observer receives every decision, typically for metrics
type Observer interface {
	RateLimitDecision(allowed bool)
}

// Cooldown is the in-memory Limiter: one accepted action per identity per cooldown.
// Each identity gets a single-token bucket refilled once per cooldown.
// Entries are never evicted; Len reports how many identities are tracked.
type Cooldown struct {
	cooldown time.Duration
	timeNow  func() time.Time // Injectable for testing
	logger   *zap.SugaredLogger
	observer Observer

	mu      sync.Mutex
	buckets map[netip.Addr]*rate.Limiter
}

// CooldownOption configures a Cooldown
type CooldownOption func(*Cooldown)

// WithClock injects the clock (for testing)
func WithClock(timeNow func() time.Time) CooldownOption {
	return func(c *Cooldown) { c.timeNow = timeNow }
}

// WithLogger sets the decision logger
func WithLogger(l *zap.SugaredLogger) CooldownOption {
	return func(c *Cooldown) { c.logger = logger.OrNop(l) }
}

// WithObserver attaches an Observer
func WithObserver(o Observer) CooldownOption {
	return func(c *Cooldown) { c.observer = o }
}

var _ Limiter = (*Cooldown)(nil)

// NewCooldown creates an in-memory limiter with the given cooldown window
func NewCooldown(cooldown time.Duration, opts ...CooldownOption) *Cooldown {
	c := &Cooldown{
		cooldown: cooldown,
		timeNow:  time.Now,
		logger:   zap.NewNop().Sugar(),
		buckets:  make(map[netip.Addr]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allow returns true if id was never seen or its last accepted action is at
// least one cooldown old. A denial takes no token, so retrying early never
// extends the wait.
func (c *Cooldown) Allow(_ context.Context, id netip.Addr) bool {
	c.mu.Lock()
	bucket, ok := c.buckets[id]
	if !ok {
		bucket = rate.NewLimiter(rate.Every(c.cooldown), 1)
		c.buckets[id] = bucket
	}
	allowed := bucket.AllowN(c.timeNow(), 1)
	c.mu.Unlock()

	c.logger.Debugw("Rate limit decision", logger.FieldRemoteIP, id.String(), "allowed", allowed)
	if c.observer != nil {
		c.observer.RateLimitDecision(allowed)
	}
	return allowed
}

// Len returns the number of tracked identities
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

// Cooldown returns the configured window
func (c *Cooldown) Cooldown() time.Duration {
	return c.cooldown
}
