package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/guestbook"
	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/pagination"
	"github.com/teranos/homepage/ratelimit"
)

// fetcher adapts an upstream source to the cache's fetch signature.
// The fetch outlives a disconnecting client: other callers may be waiting on it.
func fetcher[T any](r *http.Request, slot string, source func(context.Context) (T, error)) func() (T, error) {
	ctx := context.WithoutCancel(r.Context())
	return func() (T, error) {
		if source == nil {
			var zero T
			return zero, errors.Wrapf(errors.ErrServiceUnavailable, "%s source not configured", slot)
		}
		return source(ctx)
	}
}

// HandleNowPlaying serves the now-playing line
func (s *HomepageServer) HandleNowPlaying(w http.ResponseWriter, r *http.Request) {
	track, ok := s.slots.NowPlaying.GetOrRefresh(fetcher(r, SlotNowPlaying, s.sources.NowPlaying))
	writeHTML(w, http.StatusOK, s.renderer.NowPlaying(track, ok))
}

// HandleTopArtists serves the ranked top artists
func (s *HomepageServer) HandleTopArtists(w http.ResponseWriter, r *http.Request) {
	artists, ok := s.slots.TopArtists.GetOrRefresh(fetcher(r, SlotTopArtists, s.sources.TopArtists))
	writeHTML(w, http.StatusOK, s.renderer.TopArtists(artists, ok))
}

// HandleTopTracks serves the ranked top tracks
func (s *HomepageServer) HandleTopTracks(w http.ResponseWriter, r *http.Request) {
	tracks, ok := s.slots.TopTracks.GetOrRefresh(fetcher(r, SlotTopTracks, s.sources.TopTracks))
	writeHTML(w, http.StatusOK, s.renderer.TopTracks(tracks, ok))
}

// HandleTopAlbums serves the ranked top albums
func (s *HomepageServer) HandleTopAlbums(w http.ResponseWriter, r *http.Request) {
	albums, ok := s.slots.TopAlbums.GetOrRefresh(fetcher(r, SlotTopAlbums, s.sources.TopAlbums))
	writeHTML(w, http.StatusOK, s.renderer.TopAlbums(albums, ok))
}

// HandleUserStats serves the scrobble totals
func (s *HomepageServer) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := s.slots.UserStats.GetOrRefresh(fetcher(r, SlotUserStats, s.sources.UserStats))
	writeHTML(w, http.StatusOK, s.renderer.UserStats(stats, ok))
}

// HandleWeather serves the wttr.in one-liner
func (s *HomepageServer) HandleWeather(w http.ResponseWriter, r *http.Request) {
	report, ok := s.slots.Weather.GetOrRefresh(fetcher(r, SlotWeather, s.sources.Weather))
	writeHTML(w, http.StatusOK, s.renderer.Weather(report, ok))
}

// HandleUptime serves the host boot instant for the client-side uptime counter
func (s *HomepageServer) HandleUptime(w http.ResponseWriter, r *http.Request) {
	boot, err := s.sources.BootTime()
	if err != nil {
		logger.LoggerFromContext(r.Context(), s.logger).Warnw("Failed to read boot time", logger.FieldError, err)
	}
	writeHTML(w, http.StatusOK, s.renderer.Uptime(boot, err))
}

// HandleProjects serves one page of projects
func (s *HomepageServer) HandleProjects(w http.ResponseWriter, r *http.Request) {
	params := s.pageParams(r)
	writeHTML(w, http.StatusOK, s.renderer.ProjectList(s.projects.Page(params), params.Limit))
}

// HandleMessages serves one page of guestbook messages, newest first.
// A store failure renders as an empty page.
func (s *HomepageServer) HandleMessages(w http.ResponseWriter, r *http.Request) {
	params := s.pageParams(r)
	page, err := s.messages.Read(r.Context(), params)
	if err != nil {
		logger.LoggerFromContext(r.Context(), s.logger).Errorw("Failed to read messages",
			logger.FieldCursor, params.After(),
			logger.FieldLimit, params.Limit,
			logger.FieldError, err)
		page = pagination.Page[guestbook.Message]{}
	}
	writeHTML(w, http.StatusOK, s.renderer.MessageList(page, params.Limit))
}

func (s *HomepageServer) pageParams(r *http.Request) pagination.Params {
	return pagination.FromQueryDefault(r.URL.Query(), s.cfg.PageLimit)
}

// HandlePostMessage appends a guestbook message. Every outcome answers 200
// with a fragment, since htmx only swaps successful responses.
func (s *HomepageServer) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.LoggerFromContext(ctx, s.logger)

	// Checked before the body is read, so a rejected post still uses up the window
	ip, ok := ratelimit.ClientIP(r)
	if !ok || !s.limiter.Allow(ctx, ip) {
		log.Infow("Guestbook post rate limited", logger.FieldRemoteIP, ip.String(), "resolved", ok)
		if secs := retryAfterSeconds(s.cfg.RetryAfter); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		s.feedback(w, feedbackRateLimitedTitle, feedbackRateLimitedDesc, true)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		log.Warnw("Failed to parse guestbook post", logger.FieldError, err)
		s.feedback(w, feedbackBadBodyTitle, feedbackBadBodyDesc, true)
		return
	}

	author, content, err := s.cfg.Limits.Prepare(r.PostForm.Get("author"), r.PostForm.Get("content"))
	switch {
	case errors.Is(err, guestbook.ErrEmptyContent):
		s.feedback(w, feedbackEmptyTitle, feedbackEmptyDesc, false)
		return
	case errors.Is(err, guestbook.ErrContentTooLong):
		s.feedback(w, feedbackTooLongTitle, fmt.Sprintf(feedbackTooLongDesc, s.cfg.Limits.MaxContentLength), false)
		return
	case err != nil:
		log.Warnw("Rejected guestbook post", logger.FieldError, err)
		s.feedback(w, feedbackBadBodyTitle, feedbackBadBodyDesc, true)
		return
	}

	msg, err := s.messages.Append(ctx, author, content)
	if err != nil {
		log.Errorw("Failed to append message", logger.FieldError, err)
		s.feedback(w, feedbackStoreTitle, feedbackStoreDesc, true)
		return
	}

	log.Infow("Guestbook message posted", "id", msg.ID, "author", msg.Author)
	writeHTML(w, http.StatusOK, s.renderer.PostedMessage(*msg))
}

// HandleComponentNotFound answers unknown /comp/ paths
func (s *HomepageServer) HandleComponentNotFound(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusNotFound, s.renderer.NotFound())
}

func (s *HomepageServer) feedback(w http.ResponseWriter, title, description string, isError bool) {
	writeHTML(w, http.StatusOK, s.renderer.FormFeedback(title, description, isError))
}

// retryAfterSeconds rounds d up to whole seconds
func retryAfterSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
