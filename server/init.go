package server

import (
	"time"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/sysinfo"
)

// Option configures a HomepageServer
type Option func(*HomepageServer)

// WithClock injects the clock used for /health uptime (for testing)
func WithClock(timeNow func() time.Time) Option {
	return func(s *HomepageServer) { s.timeNow = timeNow }
}

// WithHostSnapshot replaces the host reader behind /health (for testing)
func WithHostSnapshot(snapshot func(now time.Time) (sysinfo.Host, error)) Option {
	return func(s *HomepageServer) { s.snapshot = snapshot }
}

// NewHomepageServer creates a server over deps. It does not listen until Start or Serve.
func NewHomepageServer(cfg Config, deps Deps, opts ...Option) (*HomepageServer, error) {
	// Validate critical inputs
	if deps.Pool == nil {
		return nil, errors.New("worker pool cannot be nil")
	}
	if deps.Renderer == nil {
		return nil, errors.New("renderer cannot be nil")
	}
	if deps.Messages == nil {
		return nil, errors.New("message store cannot be nil")
	}
	if deps.Projects == nil {
		return nil, errors.New("project source cannot be nil")
	}
	if deps.Limiter == nil {
		return nil, errors.New("rate limiter cannot be nil")
	}
	if deps.Slots == nil {
		return nil, errors.New("cache slots cannot be nil")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = ShutdownTimeout
	}

	s := &HomepageServer{
		cfg:      cfg,
		pool:     deps.Pool,
		renderer: deps.Renderer,
		messages: deps.Messages,
		projects: deps.Projects,
		limiter:  deps.Limiter,
		slots:    deps.Slots,
		sources:  deps.Sources,
		metrics:  deps.Metrics,
		logger:   logger.OrNop(deps.Logger),
		timeNow:  time.Now,
		snapshot: sysinfo.Snapshot,
	}
	if s.sources.BootTime == nil {
		s.sources.BootTime = sysinfo.BootTime
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = s.setupHTTPRoutes()
	s.state.Store(int32(ServerStateRunning))

	s.logger.Infow("Homepage server created",
		logger.FieldWorkers, s.pool.Workers(),
		"static_dir", cfg.StaticDir,
		"metrics", s.metrics != nil)
	return s, nil
}
