package server

import (
	"net/http"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/pool"
)

// dispatch runs next as a pool job and blocks until the job is done, since
// the ResponseWriter is only valid for the lifetime of ServeHTTP.
func (s *HomepageServer) dispatch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		done := make(chan struct{})

		err := s.pool.Submit(func() {
			defer close(done)
			defer func() {
				if rec := recover(); rec != nil {
					if !recorder.wroteHeader {
						http.Error(recorder, "internal server error", http.StatusInternalServerError)
					}
					// Re-panic so the pool logs the stack and counts it
					panic(rec)
				}
			}()
			next.ServeHTTP(recorder, r)
		})
		if err != nil {
			log := logger.LoggerFromContext(r.Context(), s.logger)
			if errors.Is(err, pool.ErrPoolClosed) {
				log.Infow("Rejecting request, worker pool closed", logger.FieldPath, r.URL.Path)
			} else {
				log.Errorw("Failed to dispatch request", logger.FieldPath, r.URL.Path, logger.FieldError, err)
			}
			w.Header().Set("Retry-After", "1")
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		}
		<-done
	})
}
