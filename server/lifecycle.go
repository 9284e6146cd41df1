package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
)

// getState returns the current server state
func (s *HomepageServer) getState() ServerState {
	return ServerState(s.state.Load())
}

// setState atomically updates the server state
func (s *HomepageServer) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ListenAndServe binds cfg.Addr and serves until Stop. It returns nil after a
// graceful stop.
func (s *HomepageServer) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.cfg.Addr)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop
func (s *HomepageServer) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          newHTTPErrorLog(s.logger),
	}

	// Stop moves the state under the same lock, so it either sees srv or we see it
	s.mu.Lock()
	if s.getState() != ServerStateRunning {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is not running")
	}
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Infow("HTTP server listening", logger.FieldAddress, ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "HTTP server failed")
	}
	return nil
}

// Stop drains the server: the listener closes and in-flight requests finish,
// then the worker pool runs out its queue. Both share cfg.ShutdownTimeout.
func (s *HomepageServer) Stop() error {
	if s.getState() == ServerStateStopped {
		return nil
	}
	s.logger.Infow("Initiating server shutdown", "timeout", s.cfg.ShutdownTimeout)
	s.mu.Lock()
	s.setState(ServerStateDraining)
	srv := s.httpServer
	s.mu.Unlock()

	deadline := time.Now().Add(s.cfg.ShutdownTimeout)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	var stopErr error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warnw("HTTP shutdown incomplete", logger.FieldError, err)
			stopErr = errors.Wrap(err, "failed to shut down HTTP server")
		}
	}

	// Requests already queued still run; new submissions are refused
	if !s.pool.ShutdownTimeout(max(time.Until(deadline), 0)) && stopErr == nil {
		stopErr = errors.Wrapf(errors.ErrTimeout, "worker pool did not drain within %s", s.cfg.ShutdownTimeout)
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete", "panics", s.pool.Panics())
	return stopErr
}
