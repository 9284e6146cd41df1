package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/ui"
)

// Page titles
const (
	titleHome      = "Home"
	titleGuestbook = "Guestbook"
	titleProjects  = "Projects"
	titleInterests = "Interests"
	titleNotFound  = "Not Found"
)

// HandleHome serves the landing page. Values already cached are inlined so
// the first paint does not wait on the lazy fragments.
func (s *HomepageServer) HandleHome(w http.ResponseWriter, r *http.Request) {
	track, trackOK := s.slots.NowPlaying.Peek()
	weather, weatherOK := s.slots.Weather.Peek()
	boot, bootErr := s.sources.BootTime()

	s.writePage(w, r, ui.Page{
		Title: titleHome,
		Content: s.renderer.Home(ui.HomeData{
			NowPlaying:   track,
			NowPlayingOK: trackOK,
			Weather:      weather,
			WeatherOK:    weatherOK,
			BootTime:     boot,
			BootTimeErr:  bootErr,
		}),
	})
}

// HandleGuestbook serves the guestbook page
func (s *HomepageServer) HandleGuestbook(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, ui.Page{Title: titleGuestbook, Content: s.renderer.Guestbook()})
}

// HandleProjectsPage serves the projects page
func (s *HomepageServer) HandleProjectsPage(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, ui.Page{Title: titleProjects, Content: s.renderer.Projects()})
}

// HandleInterests serves the last.fm statistics page
func (s *HomepageServer) HandleInterests(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, ui.Page{Title: titleInterests, Content: s.renderer.Interests()})
}

// HandleNotFound serves the not-found page for any unrouted path or method
func (s *HomepageServer) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, ui.Page{Title: titleNotFound, Content: s.renderer.NotFound(), Status: http.StatusNotFound})
}

// writePage writes only the page content for htmx navigation and the full
// document otherwise
func (s *HomepageServer) writePage(w http.ResponseWriter, r *http.Request, page ui.Page) {
	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}
	if isHTMXRequest(r) {
		writeHTML(w, status, page.Content)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Document(&buf, page.Title, page.Content); err != nil {
		logger.LoggerFromContext(r.Context(), s.logger).Errorw("Failed to render document",
			"title", page.Title, logger.FieldError, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, template.HTML(buf.String()))
}
