package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/ui"
)

// RequestIDHeader carries the per-request id on responses
const RequestIDHeader = "X-Request-ID"

// setupHTTPRoutes builds the handler tree. /health and /metrics answer on the
// listener goroutine; everything else is dispatched to the worker pool.
func (s *HomepageServer) setupHTTPRoutes() http.Handler {
	routes := http.NewServeMux()

	// Fragments
	routes.HandleFunc("GET "+ui.NowPlayingPath, s.HandleNowPlaying)
	routes.HandleFunc("GET "+ui.TopArtistsPath, s.HandleTopArtists)
	routes.HandleFunc("GET "+ui.TopTracksPath, s.HandleTopTracks)
	routes.HandleFunc("GET "+ui.TopAlbumsPath, s.HandleTopAlbums)
	routes.HandleFunc("GET "+ui.UserStatsPath, s.HandleUserStats)
	routes.HandleFunc("GET "+ui.WeatherPath, s.HandleWeather)
	routes.HandleFunc("GET "+ui.UptimePath, s.HandleUptime)
	routes.HandleFunc("GET "+ui.ProjectsPath, s.HandleProjects)
	routes.HandleFunc("GET "+ui.MessagesPath, s.HandleMessages)
	routes.HandleFunc("POST "+ui.MessagesPath, s.HandlePostMessage)
	routes.HandleFunc("/comp/", s.HandleComponentNotFound)

	// Pages
	routes.HandleFunc("GET /{$}", s.HandleHome)
	routes.HandleFunc("GET /home", s.HandleHome)
	routes.HandleFunc("GET /guestbook", s.HandleGuestbook)
	routes.HandleFunc("GET /projects", s.HandleProjectsPage)
	routes.HandleFunc("GET /interests", s.HandleInterests)
	routes.HandleFunc("GET /static/{path...}", s.HandleStatic)
	routes.HandleFunc("/", s.HandleNotFound)

	root := http.NewServeMux()
	root.HandleFunc("GET /health", s.HandleHealth)
	if s.metrics != nil {
		root.Handle("GET /metrics", s.metrics.Handler())
	}
	root.Handle("/", s.dispatch(routes))

	return s.requestMiddleware(root)
}

// requestMiddleware tags each request with an id, then logs and measures it
func (s *HomepageServer) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(logger.WithRequestID(r.Context(), requestID))

		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		// ServeMux records the matched pattern on the request it was given
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, recorder.statusCode, duration)
		}
		logger.LoggerFromContext(r.Context(), s.logger).Debugw("HTTP request",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, recorder.statusCode,
			logger.FieldDurationMS, duration.Milliseconds())
	})
}

// responseRecorder passes writes through while remembering the status
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rr *responseRecorder) WriteHeader(code int) {
	if rr.wroteHeader {
		return
	}
	rr.statusCode = code
	rr.wroteHeader = true
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if !rr.wroteHeader {
		rr.WriteHeader(http.StatusOK)
	}
	return rr.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}
