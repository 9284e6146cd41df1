package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/homepage/cache"
	"github.com/teranos/homepage/guestbook"
	"github.com/teranos/homepage/metrics"
	"github.com/teranos/homepage/pagination"
	"github.com/teranos/homepage/pool"
	"github.com/teranos/homepage/projects"
	"github.com/teranos/homepage/ratelimit"
	"github.com/teranos/homepage/sysinfo"
	"github.com/teranos/homepage/ui"
	"github.com/teranos/homepage/upstream/lastfm"
)

// HomepageServer serves the homepage: full pages, htmx fragments, static
// files and the guestbook. Every routed request runs as a job on the worker pool.
type HomepageServer struct {
	cfg      Config
	pool     *pool.WorkerPool
	renderer *ui.Renderer
	messages MessageStore
	projects ProjectSource
	limiter  ratelimit.Limiter
	slots    *Slots
	sources  Sources
	metrics  *metrics.Collector // nil when metrics are disabled
	logger   *zap.SugaredLogger

	handler    http.Handler
	httpServer *http.Server
	mu         sync.Mutex // guards httpServer and leaving the running state

	// State management
	state atomic.Int32 // ServerState

	timeNow  func() time.Time
	snapshot func(now time.Time) (sysinfo.Host, error)
}

// Config holds the listener and request handling settings
type Config struct {
	Addr            string
	ReadTimeout     time.Duration // 0 = no timeout
	WriteTimeout    time.Duration // 0 = no timeout
	ShutdownTimeout time.Duration // 0 = ShutdownTimeout
	StaticDir       string
	Limits          guestbook.Limits
	RetryAfter      time.Duration // Sent with rate-limited posts
	PageLimit       int           // Page size without a limit param; 0 = pagination.DefaultLimit
}

// Deps are the components the server closes over. Everything but Metrics is required.
type Deps struct {
	Pool     *pool.WorkerPool
	Renderer *ui.Renderer
	Messages MessageStore
	Projects ProjectSource
	Limiter  ratelimit.Limiter
	Slots    *Slots
	Sources  Sources
	Metrics  *metrics.Collector
	Logger   *zap.SugaredLogger
}

// MessageStore is the guestbook log as the server uses it
type MessageStore interface {
	Append(ctx context.Context, author, content string) (*guestbook.Message, error)
	Read(ctx context.Context, p pagination.Params) (pagination.Page[guestbook.Message], error)
}

// ProjectSource pages through the project list
type ProjectSource interface {
	Page(p pagination.Params) pagination.Page[projects.Project]
}

var (
	_ MessageStore  = (*guestbook.Store)(nil)
	_ ProjectSource = (*projects.Catalog)(nil)
)

// Sources are the upstream fetchers behind the cache slots. A nil fetcher
// behaves like one that always fails, so its fragment stays a placeholder.
type Sources struct {
	NowPlaying func(ctx context.Context) (*lastfm.Track, error)
	TopArtists func(ctx context.Context) ([]lastfm.Artist, error)
	TopTracks  func(ctx context.Context) ([]lastfm.Track, error)
	TopAlbums  func(ctx context.Context) ([]lastfm.Album, error)
	UserStats  func(ctx context.Context) (*lastfm.UserStats, error)
	Weather    func(ctx context.Context) (string, error)
	BootTime   func() (time.Time, error)
}

// LastFMSources binds the last.fm fetchers to client, using limit and period for the top lists
func LastFMSources(client *lastfm.Client, limit int, period string) Sources {
	return Sources{
		NowPlaying: client.NowPlaying,
		TopArtists: func(ctx context.Context) ([]lastfm.Artist, error) {
			return client.TopArtists(ctx, limit, period)
		},
		TopTracks: func(ctx context.Context) ([]lastfm.Track, error) {
			return client.TopTracks(ctx, limit, period)
		},
		TopAlbums: func(ctx context.Context) ([]lastfm.Album, error) {
			return client.TopAlbums(ctx, limit, period)
		},
		UserStats: client.UserStats,
	}
}

// Slots are the cache slots, one per upstream resource
type Slots struct {
	NowPlaying *cache.Slot[*lastfm.Track]
	TopArtists *cache.Slot[[]lastfm.Artist]
	TopTracks  *cache.Slot[[]lastfm.Track]
	TopAlbums  *cache.Slot[[]lastfm.Album]
	UserStats  *cache.Slot[*lastfm.UserStats]
	Weather    *cache.Slot[string]
}

// SlotTTLs holds the freshness window of each slot
type SlotTTLs struct {
	NowPlaying time.Duration
	TopLists   time.Duration
	UserStats  time.Duration
	Weather    time.Duration
}

// Slot names used in logs and metrics
const (
	SlotNowPlaying = "now_playing"
	SlotTopArtists = "top_artists"
	SlotTopTracks  = "top_tracks"
	SlotTopAlbums  = "top_albums"
	SlotUserStats  = "user_stats"
	SlotWeather    = "weather"
)

// NewSlots creates every slot with the given TTLs and shared options
func NewSlots(ttls SlotTTLs, opts ...cache.Option) *Slots {
	return &Slots{
		NowPlaying: cache.NewSlot[*lastfm.Track](SlotNowPlaying, ttls.NowPlaying, opts...),
		TopArtists: cache.NewSlot[[]lastfm.Artist](SlotTopArtists, ttls.TopLists, opts...),
		TopTracks:  cache.NewSlot[[]lastfm.Track](SlotTopTracks, ttls.TopLists, opts...),
		TopAlbums:  cache.NewSlot[[]lastfm.Album](SlotTopAlbums, ttls.TopLists, opts...),
		UserStats:  cache.NewSlot[*lastfm.UserStats](SlotUserStats, ttls.UserStats, opts...),
		Weather:    cache.NewSlot[string](SlotWeather, ttls.Weather, opts...),
	}
}

// health reports whether each slot has ever been filled
func (s *Slots) health() []SlotHealth {
	_, nowPlaying := s.NowPlaying.Peek()
	_, artists := s.TopArtists.Peek()
	_, tracks := s.TopTracks.Peek()
	_, albums := s.TopAlbums.Peek()
	_, stats := s.UserStats.Peek()
	_, weather := s.Weather.Peek()
	return []SlotHealth{
		{SlotNowPlaying, nowPlaying},
		{SlotTopArtists, artists},
		{SlotTopTracks, tracks},
		{SlotTopAlbums, albums},
		{SlotUserStats, stats},
		{SlotWeather, weather},
	}
}

// Handler returns the routed handler, including pool dispatch
func (s *HomepageServer) Handler() http.Handler {
	return s.handler
}
