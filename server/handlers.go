package server

import (
	"net/http"

	"github.com/teranos/homepage/internal/util"
	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/version"
)

// identityCounter is implemented by limiters that track identities in process
type identityCounter interface {
	Len() int
}

// HandleHealth reports liveness and pool figures. It answers on the listener
// goroutine so it stays responsive when every worker is busy.
func (s *HomepageServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()
	state := s.getState()

	health := HealthResponse{
		Status:  "ok",
		Version: versionInfo.Version,
		Commit:  versionInfo.Short(),
		Workers: s.pool.Workers(),
		Pending: s.pool.Pending(),
		Active:  s.pool.Active(),
		Panics:  s.pool.Panics(),
		Slots:   s.slots.health(),
	}
	if counter, ok := s.limiter.(identityCounter); ok {
		health.Identities = util.Ptr(counter.Len())
	}
	if host, err := s.snapshot(s.timeNow()); err == nil {
		health.Host = util.Ptr(host)
	} else {
		logger.LoggerFromContext(r.Context(), s.logger).Debugw("Host snapshot unavailable", logger.FieldError, err)
	}

	status := http.StatusOK
	if state != ServerStateRunning {
		health.Status = stateString(state)
		status = http.StatusServiceUnavailable
	}
	if err := writeJSON(w, status, health); err != nil {
		s.logger.Warnw("Failed to write health response", logger.FieldError, err)
	}
}
