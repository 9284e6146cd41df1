package ratelimit

import (
	"context"
	"net/netip"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
)

// DefaultRedisPrefix namespaces limiter keys
const DefaultRedisPrefix = "homepage:ratelimit:"

// RedisCooldown shares the cooldown across processes.
// SET NX with an expiry equal to the cooldown is atomic in redis, and a
// denied SET leaves the key and its TTL alone, matching Cooldown.
type RedisCooldown struct {
	rdb      redis.Cmdable
	cooldown time.Duration
	prefix   string
	timeNow  func() time.Time
	logger   *zap.SugaredLogger
	observer Observer
}

var _ Limiter = (*RedisCooldown)(nil)

// RedisOption configures a RedisCooldown
type RedisOption func(*RedisCooldown)

// WithRedisPrefix overrides DefaultRedisPrefix
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *RedisCooldown) { r.prefix = prefix }
}

// WithRedisLogger sets the logger used for redis failures
func WithRedisLogger(l *zap.SugaredLogger) RedisOption {
	return func(r *RedisCooldown) { r.logger = logger.OrNop(l) }
}

// WithRedisObserver attaches an Observer
func WithRedisObserver(o Observer) RedisOption {
	return func(r *RedisCooldown) { r.observer = o }
}

// NewRedisCooldown creates a redis-backed limiter. cooldown must be positive
// because redis rejects a zero expiry.
func NewRedisCooldown(rdb redis.Cmdable, cooldown time.Duration, opts ...RedisOption) (*RedisCooldown, error) {
	if rdb == nil {
		return nil, errors.New("redis limiter needs a client")
	}
	if cooldown <= 0 {
		return nil, errors.Newf("redis limiter needs a positive cooldown, got %s", cooldown)
	}

	r := &RedisCooldown{
		rdb:      rdb,
		cooldown: cooldown,
		prefix:   DefaultRedisPrefix,
		timeNow:  time.Now,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Allow sets <prefix><ip> only if absent. Redis errors deny the request.
func (r *RedisCooldown) Allow(ctx context.Context, id netip.Addr) bool {
	allowed, err := r.rdb.SetNX(ctx, r.key(id), r.timeNow().UnixMilli(), r.cooldown).Result()
	if err != nil {
		r.logger.Errorw("Rate limiter redis call failed, denying",
			logger.FieldRemoteIP, id.String(),
			logger.FieldError, err,
		)
		allowed = false
	}

	if r.observer != nil {
		r.observer.RateLimitDecision(allowed)
	}
	return allowed
}

// Cooldown returns the configured window
func (r *RedisCooldown) Cooldown() time.Duration {
	return r.cooldown
}

func (r *RedisCooldown) key(id netip.Addr) string {
	return r.prefix + id.String()
}

// NewRedisClient connects to redis and verifies the connection with a PING
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrapf(err, "redis ping %s", addr)
	}
	return rdb, nil
}
