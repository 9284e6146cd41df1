package ui

import (
	"html/template"
	"strings"
	"time"

	"github.com/teranos/homepage/guestbook"
	"github.com/teranos/homepage/pagination"
	"github.com/teranos/homepage/projects"
	"github.com/teranos/homepage/upstream/lastfm"
)

// Fragment endpoints
const (
	NowPlayingPath = "/comp/now-playing"
	TopArtistsPath = "/comp/top-artists"
	TopTracksPath  = "/comp/top-tracks"
	TopAlbumsPath  = "/comp/top-albums"
	UserStatsPath  = "/comp/user-stats"
	WeatherPath    = "/comp/server-weather"
	UptimePath     = "/comp/server-uptime"
	ProjectsPath   = "/comp/projects"
	MessagesPath   = "/comp/messages"
)

type lazyData struct {
	Inline   bool
	Polling  bool
	Endpoint string
	Trigger  string
	Body     template.HTML
}

// Lazy wraps body in an element that htmx swaps with a fresh copy from
// endpoint. Without a body the element loads immediately and shows a
// placeholder; with one it polls every interval, or stays put when
// interval is empty.
func (r *Renderer) Lazy(body template.HTML, loaded bool, endpoint, interval string, inline bool) template.HTML {
	d := lazyData{Inline: inline, Endpoint: endpoint}
	switch {
	case !loaded:
		d.Polling = true
		d.Trigger = "load"
		d.Body = "loading..."
	case interval != "":
		d.Polling = true
		d.Trigger = "every " + interval
		d.Body = body
	default:
		d.Body = body
	}
	return r.must("lazy", d)
}

// NowPlaying renders the now-playing line. ok is false while nothing has
// been fetched yet; a nil track means nothing is playing.
func (r *Renderer) NowPlaying(track *lastfm.Track, ok bool) template.HTML {
	var body template.HTML
	if ok {
		body = r.must("now-playing", track)
	}
	return r.Lazy(body, ok, NowPlayingPath, NowPlayingInterval, true)
}

// TopArtists renders the ranked artist list
func (r *Renderer) TopArtists(artists []lastfm.Artist, ok bool) template.HTML {
	var body template.HTML
	if ok {
		body = r.must("top-artists", artists)
	}
	return r.Lazy(body, ok, TopArtistsPath, "", false)
}

// TopTracks renders the ranked track list
func (r *Renderer) TopTracks(tracks []lastfm.Track, ok bool) template.HTML {
	var body template.HTML
	if ok {
		body = r.must("top-tracks", tracks)
	}
	return r.Lazy(body, ok, TopTracksPath, "", false)
}

// TopAlbums renders the ranked album list
func (r *Renderer) TopAlbums(albums []lastfm.Album, ok bool) template.HTML {
	var body template.HTML
	if ok {
		body = r.must("top-albums", albums)
	}
	return r.Lazy(body, ok, TopAlbumsPath, "", false)
}

// UserStats renders the library totals
func (r *Renderer) UserStats(stats *lastfm.UserStats, ok bool) template.HTML {
	var body template.HTML
	if ok && stats != nil {
		body = r.must("user-stats", stats)
	}
	return r.Lazy(body, ok && stats != nil, UserStatsPath, "", false)
}

// LastFMStats is the interests page grid; every list loads lazily
func (r *Renderer) LastFMStats() template.HTML {
	return r.must("lastfm-stats", struct {
		Period     string
		TopArtists template.HTML
		TopTracks  template.HTML
		TopAlbums  template.HTML
		UserStats  template.HTML
	}{
		Period:     r.period,
		TopArtists: r.TopArtists(nil, false),
		TopTracks:  r.TopTracks(nil, false),
		TopAlbums:  r.TopAlbums(nil, false),
		UserStats:  r.UserStats(nil, false),
	})
}

// Weather renders the one-line weather report
func (r *Renderer) Weather(report string, ok bool) template.HTML {
	return r.Lazy(template.HTML(template.HTMLEscapeString(report)), ok, WeatherPath, WeatherInterval, true)
}

// Clock renders the server clock, ticked client-side from the server's now
func (r *Renderer) Clock() template.HTML {
	return r.must("live-time", liveTime{TS: r.timeNow().UnixMilli(), Type: "clock", Label: "⏲ loading..."})
}

// Uptime renders the host uptime counter from the boot instant
func (r *Renderer) Uptime(boot time.Time, err error) template.HTML {
	if err != nil {
		r.logger.Warnw("Couldn't read uptime", "error", err)
		return r.must("uptime-error", nil)
	}
	return r.must("live-time", liveTime{TS: boot.UnixMilli(), Type: "uptime", Label: "⏱ loading..."})
}

// Banner renders the ascii art banner
func (r *Renderer) Banner() template.HTML {
	return r.must("ascii-banner", r.readText(BannerFile, "Couldn't load banner."))
}

// Welcome renders the scrolling welcome message
func (r *Renderer) Welcome() template.HTML {
	return r.must("welcome-message", r.readText(WelcomeFile, "Couldn't load welcome message"))
}

// Bulletpoints renders one span per line of the bulletpoints file
func (r *Renderer) Bulletpoints() template.HTML {
	text := r.readText(BulletpointsFile, "☹ Couldn't load bulletpoints")
	return r.must("bulletpoints", strings.Split(text, "\n"))
}

// Socials renders the profile links
func (r *Renderer) Socials() template.HTML {
	return r.must("socials", r.socials)
}

// InputForm renders the guestbook form posting to MessagesPath
func (r *Renderer) InputForm() template.HTML {
	return r.must("input-form", MessagesPath)
}

// FormFeedback renders an out-of-band status box replacing #form-feedback
func (r *Renderer) FormFeedback(title, description string, isError bool) template.HTML {
	return r.must("form-feedback", struct {
		Title       string
		Description string
		IsError     bool
	}{title, description, isError})
}

// EmptyFormFeedback clears #form-feedback
func (r *Renderer) EmptyFormFeedback() template.HTML {
	return r.must("empty-form-feedback", nil)
}

// MessageItem renders one guestbook message
func (r *Renderer) MessageItem(msg guestbook.Message) template.HTML {
	return r.must("message-item", msg)
}

// PostedMessage is the response to a successful post: the new message,
// prepended to the list by htmx, and a cleared feedback box
func (r *Renderer) PostedMessage(msg guestbook.Message) template.HTML {
	return r.MessageItem(msg) + r.EmptyFormFeedback()
}

// MessageList renders a page of messages with a load-more trigger when
// older messages remain
func (r *Renderer) MessageList(page pagination.Page[guestbook.Message], limit int) template.HTML {
	return r.must("message-list", struct {
		Items   []guestbook.Message
		NextURL string
	}{page.Items, nextURL(MessagesPath, page.Next, limit)})
}

// ProjectList renders a page of projects with a load-more trigger when
// more remain
func (r *Renderer) ProjectList(page pagination.Page[projects.Project], limit int) template.HTML {
	return r.must("project-list", struct {
		Items   []projects.Project
		NextURL string
	}{page.Items, nextURL(ProjectsPath, page.Next, limit)})
}

func nextURL(path string, next *int64, limit int) string {
	if next == nil {
		return ""
	}
	return path + "?" + pagination.Params{Cursor: next, Limit: limit}.Query().Encode()
}
