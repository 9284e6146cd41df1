// Package cache holds single-value TTL slots that coalesce refreshes of
// upstream resources: at most one fetch runs per slot per stale period.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/homepage/logger"
)

// Result classifies how a GetOrRefresh call was answered
type Result string

const (
	ResultHit     Result = "hit"     // Fresh value, no fetch
	ResultRefresh Result = "refresh" // Fetched a new value
	ResultStale   Result = "stale"   // Fetch failed, previous value served
	ResultMiss    Result = "miss"    // Fetch failed and nothing cached yet
)

// Observer receives one event per GetOrRefresh call
type Observer interface {
	CacheResult(slot string, result Result)
}

// Option configures a Slot
type Option func(*options)

type options struct {
	timeNow  func() time.Time
	logger   *zap.SugaredLogger
	observer Observer
}

// WithClock injects the clock used for freshness checks (for testing)
func WithClock(timeNow func() time.Time) Option {
	return func(o *options) { o.timeNow = timeNow }
}

// WithLogger sets the logger used to report failed fetches
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver attaches an Observer
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Slot caches the freshest known value of one resource.
// A present value is only ever replaced by a successful fetch.
type Slot[T any] struct {
	name     string
	ttl      time.Duration
	timeNow  func() time.Time
	logger   *zap.SugaredLogger
	observer Observer

	mu        sync.RWMutex
	value     T
	present   bool
	refreshed time.Time
}

// NewSlot creates an empty slot whose values stay fresh for ttl
func NewSlot[T any](name string, ttl time.Duration, opts ...Option) *Slot[T] {
	o := options{timeNow: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Slot[T]{
		name:     name,
		ttl:      ttl,
		timeNow:  o.timeNow,
		logger:   logger.OrNop(o.logger).With(logger.FieldSlot, name),
		observer: o.observer,
	}
}

// GetOrRefresh returns the cached value if it is fresh, otherwise calls fetch.
// Concurrent callers on a stale slot wait for a single fetch and share its result.
// A failed fetch keeps the previous value and refresh instant, so the next
// call tries again; ok is false only when nothing was ever fetched successfully.
func (s *Slot[T]) GetOrRefresh(fetch func() (T, error)) (value T, ok bool) {
	s.mu.RLock()
	if s.freshLocked() {
		value = s.value
		s.mu.RUnlock()
		s.observe(ResultHit)
		return value, true
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited for the write lock
	if s.freshLocked() {
		s.observe(ResultHit)
		return s.value, true
	}

	fresh, err := fetch()
	if err != nil {
		s.logger.Warnw("Cache refresh failed, serving previous value",
			logger.FieldError, err,
			"has_value", s.present,
		)
		if s.present {
			s.observe(ResultStale)
		} else {
			s.observe(ResultMiss)
		}
		return s.value, s.present
	}

	s.value = fresh
	s.present = true
	s.refreshed = s.timeNow()
	s.logger.Debugw("Cache refreshed", "ttl", s.ttl)
	s.observe(ResultRefresh)
	return s.value, true
}

// Peek returns the current value without fetching, fresh or not
func (s *Slot[T]) Peek() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.present
}

// Name returns the slot name used in logs and metrics
func (s *Slot[T]) Name() string {
	return s.name
}

func (s *Slot[T]) freshLocked() bool {
	return s.present && s.timeNow().Sub(s.refreshed) < s.ttl
}

func (s *Slot[T]) observe(r Result) {
	if s.observer != nil {
		s.observer.CacheResult(s.name, r)
	}
}
