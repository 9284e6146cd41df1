package ui

import (
	"html/template"
	"io"
	"time"

	"github.com/teranos/homepage/upstream/lastfm"
)

// Page is a routed full page
type Page struct {
	Title   string
	Content template.HTML
	Status  int // 0 means 200
}

// HomeData carries already-known upstream values so the first paint does
// not wait for the lazy fragments. Unknown values render as placeholders.
type HomeData struct {
	NowPlaying   *lastfm.Track
	NowPlayingOK bool
	Weather      string
	WeatherOK    bool
	BootTime     time.Time
	BootTimeErr  error
}

// Home renders the landing page
func (r *Renderer) Home(d HomeData) template.HTML {
	return r.must("page-home", struct {
		Banner       template.HTML
		Welcome      template.HTML
		Bulletpoints template.HTML
		NowPlaying   template.HTML
		Clock        template.HTML
		Weather      template.HTML
		Uptime       template.HTML
		Socials      template.HTML
	}{
		Banner:       r.Banner(),
		Welcome:      r.Welcome(),
		Bulletpoints: r.Bulletpoints(),
		NowPlaying:   r.NowPlaying(d.NowPlaying, d.NowPlayingOK),
		Clock:        r.Clock(),
		Weather:      r.Weather(d.Weather, d.WeatherOK),
		Uptime:       r.Uptime(d.BootTime, d.BootTimeErr),
		Socials:      r.Socials(),
	})
}

// Guestbook renders the form and a message list that loads itself
func (r *Renderer) Guestbook() template.HTML {
	return r.must("page-guestbook", struct {
		Form    template.HTML
		ListURL string
	}{r.InputForm(), MessagesPath})
}

// Projects renders a project list that loads itself
func (r *Renderer) Projects() template.HTML {
	return r.must("page-projects", ProjectsPath)
}

// Interests renders the last.fm statistics grid
func (r *Renderer) Interests() template.HTML {
	return r.must("page-interests", r.LastFMStats())
}

// NotFound renders the not-found page body
func (r *Renderer) NotFound() template.HTML {
	return r.must("page-not-found", nil)
}

// Document writes a full HTML document around content
func (r *Renderer) Document(w io.Writer, title string, content template.HTML) error {
	return r.tmpl.ExecuteTemplate(w, "document", struct {
		Title   string
		Nav     []NavItem
		Content template.HTML
	}{title, NavItems, content})
}
