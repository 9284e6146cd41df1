// Package ui renders the homepage: htmx fragments for /comp endpoints and
// full pages wrapped in the document layout.
package ui

import (
	"bytes"
	"embed"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// CollapseThreshold is the message length, in characters, above which
// content is collapsed behind a "Show more" toggle
const CollapseThreshold = 100

// Refresh intervals of polling components, in htmx trigger syntax
const (
	NowPlayingInterval = "1m"
	WeatherInterval    = "5m"
)

// Text snippet files read from the content directory on every home page render
const (
	BannerFile       = "ascii.txt"
	WelcomeFile      = "welcome.txt"
	BulletpointsFile = "bulletpoints.txt"
)

// NavItem is one navbar link
type NavItem struct {
	Path string
	Name string
}

// NavItems is the site navigation, in display order
var NavItems = []NavItem{
	{"/home", "Home"},
	{"/guestbook", "Guestbook"},
	{"/projects", "Projects"},
	{"/interests", "Interests"},
}

// Social is a profile link on the home page
type Social struct {
	Name string
	URL  string
	Icon string
}

// DefaultSocials are the home page profile links
var DefaultSocials = []Social{
	{"Tidal", "https://tidal.com/artist/64262665", "static/img/tidal.svg"},
	{"X", "https://x.com/achtergesteld", "static/img/x.svg"},
	{"Twitch", "https://twitch.tv/mentaalachtergesteld", "static/img/twitch.svg"},
	{"GitHub", "https://github.com/mentaalachtergesteld", "static/img/github.svg"},
}

// Renderer executes the embedded templates. Safe for concurrent use.
type Renderer struct {
	tmpl    *template.Template
	textDir string
	period  string
	socials []Social
	logger  *zap.SugaredLogger
	timeNow func() time.Time
}

// Option configures a Renderer
type Option func(*Renderer)

// WithClock overrides time.Now for the server clock
func WithClock(timeNow func() time.Time) Option {
	return func(r *Renderer) { r.timeNow = timeNow }
}

// WithPeriodLabel sets the label shown next to top list headings
func WithPeriodLabel(label string) Option {
	return func(r *Renderer) { r.period = label }
}

// WithSocials replaces the home page profile links
func WithSocials(socials []Social) Option {
	return func(r *Renderer) { r.socials = socials }
}

// NewRenderer parses the templates. textDir holds the home page text snippets.
func NewRenderer(textDir string, log *zap.SugaredLogger, opts ...Option) (*Renderer, error) {
	tmpl, err := template.New("ui").Funcs(template.FuncMap{
		"add1":      func(i int) int { return i + 1 },
		"isLong":    func(s string) bool { return utf8.RuneCountInString(s) > CollapseThreshold },
		"smartTime": smartTime,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ui templates")
	}

	r := &Renderer{
		tmpl:    tmpl,
		textDir: textDir,
		period:  "1 month",
		socials: DefaultSocials,
		logger:  logger.OrNop(log),
		timeNow: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// execute renders a named template into a string
func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s", name)
	}
	return template.HTML(buf.String()), nil
}

// must renders fragments built only from values this package controls.
// A failure there is a template bug; it is logged and rendered empty.
func (r *Renderer) must(name string, data any) template.HTML {
	out, err := r.execute(name, data)
	if err != nil {
		r.logger.Errorw("Template render failed", "template", name, "error", err)
		return ""
	}
	return out
}

// readText returns the trimmed content of a snippet file, or fallback
func (r *Renderer) readText(file, fallback string) string {
	path := filepath.Join(r.textDir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warnw("Couldn't read text snippet", logger.FieldFile, path, logger.FieldError, err)
		return fallback
	}
	return strings.TrimRight(string(data), "\n")
}

type liveTime struct {
	TS    int64
	Type  string
	Label string
}

func smartTime(t time.Time) liveTime {
	return liveTime{TS: t.UnixMilli(), Type: "smart"}
}

var periodLabels = map[string]string{
	"overall": "all time",
	"7day":    "7 days",
	"1month":  "1 month",
	"3month":  "3 months",
	"6month":  "6 months",
	"12month": "12 months",
}

// PeriodLabel turns a last.fm period into the label shown next to top lists
func PeriodLabel(period string) string {
	if label, ok := periodLabels[period]; ok {
		return label
	}
	return period
}
