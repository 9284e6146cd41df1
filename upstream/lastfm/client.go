// Package lastfm is a small client for the last.fm user.* read API.
package lastfm

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/internal/httpclient"
)

const (
	// DefaultBaseURL is the public last.fm API host
	DefaultBaseURL = "https://ws.audioscrobbler.com"
	// DefaultPeriod is the window used for top lists
	DefaultPeriod = "1month"
)

// Client calls the last.fm API for a single user
type Client struct {
	apiKey     string
	user       string
	baseURL    string
	httpClient *httpclient.Client
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
}

// Config holds last.fm client configuration
type Config struct {
	APIKey            string
	User              string
	BaseURL           string             // Default: DefaultBaseURL
	Timeout           time.Duration      // Default: 5s
	RequestsPerSecond float64            // 0 = unthrottled
	HTTPClient        *httpclient.Client // nil = SSRF-guarded client with Timeout
	Logger            *zap.SugaredLogger // nil = nop logger
}

// NewClient creates a last.fm client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(httpclient.Options{Timeout: config.Timeout})
	}

	// No bursting: one call per token
	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		apiKey:     config.APIKey,
		user:       config.User,
		baseURL:    config.BaseURL,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// User returns the last.fm user the client reads
func (c *Client) User() string {
	return c.user
}

// RecentTracks returns up to limit recently scrobbled tracks, newest first
func (c *Client) RecentTracks(ctx context.Context, limit int) ([]Track, error) {
	var resp recentTracksResponse
	if err := c.get(ctx, "user.getRecentTracks", url.Values{"limit": {strconv.Itoa(limit)}}, &resp); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(resp.RecentTracks.Tracks))
	for _, t := range resp.RecentTracks.Tracks {
		tracks = append(tracks, Track{
			Name:      t.Name,
			Artist:    t.Artist.Text,
			URL:       t.URL,
			ImageURL:  lastImage(t.Images),
			IsPlaying: t.Attr != nil && t.Attr.NowPlaying == "true",
		})
	}
	return tracks, nil
}

// NowPlaying returns the track currently scrobbling, or nil when nothing is playing
func (c *Client) NowPlaying(ctx context.Context) (*Track, error) {
	tracks, err := c.RecentTracks(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 || !tracks[0].IsPlaying {
		return nil, nil
	}
	return &tracks[0], nil
}

// TopArtists returns the user's most played artists over period
func (c *Client) TopArtists(ctx context.Context, limit int, period string) ([]Artist, error) {
	var resp topArtistsResponse
	if err := c.get(ctx, "user.getTopArtists", topParams(limit, period), &resp); err != nil {
		return nil, err
	}

	artists := make([]Artist, 0, len(resp.TopArtists.Artists))
	for _, a := range resp.TopArtists.Artists {
		artists = append(artists, Artist{
			Name:      a.Name,
			URL:       a.URL,
			ImageURL:  lastImage(a.Images),
			Playcount: count(a.Playcount),
		})
	}
	return artists, nil
}

// TopTracks returns the user's most played tracks over period
func (c *Client) TopTracks(ctx context.Context, limit int, period string) ([]Track, error) {
	var resp topTracksResponse
	if err := c.get(ctx, "user.getTopTracks", topParams(limit, period), &resp); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(resp.TopTracks.Tracks))
	for _, t := range resp.TopTracks.Tracks {
		tracks = append(tracks, Track{
			Name:      t.Name,
			Artist:    t.Artist.Name,
			URL:       t.URL,
			ImageURL:  lastImage(t.Images),
			Playcount: count(t.Playcount),
		})
	}
	return tracks, nil
}

// TopAlbums returns the user's most played albums over period
func (c *Client) TopAlbums(ctx context.Context, limit int, period string) ([]Album, error) {
	var resp topAlbumsResponse
	if err := c.get(ctx, "user.getTopAlbums", topParams(limit, period), &resp); err != nil {
		return nil, err
	}

	albums := make([]Album, 0, len(resp.TopAlbums.Albums))
	for _, a := range resp.TopAlbums.Albums {
		albums = append(albums, Album{
			Name:      a.Name,
			Artist:    a.Artist.Name,
			URL:       a.URL,
			ImageURL:  lastImage(a.Images),
			Playcount: count(a.Playcount),
		})
	}
	return albums, nil
}

// UserStats reads the all-time totals from the page attributes of four
// single-item list calls. Any failing call fails the whole result.
func (c *Client) UserStats(ctx context.Context) (*UserStats, error) {
	one := url.Values{"limit": {"1"}}

	var recent recentTracksResponse
	if err := c.get(ctx, "user.getRecentTracks", one, &recent); err != nil {
		return nil, errors.Wrap(err, "total scrobbles")
	}
	var artists topArtistsResponse
	if err := c.get(ctx, "user.getTopArtists", one, &artists); err != nil {
		return nil, errors.Wrap(err, "total artists")
	}
	var albums topAlbumsResponse
	if err := c.get(ctx, "user.getTopAlbums", one, &albums); err != nil {
		return nil, errors.Wrap(err, "total albums")
	}
	var tracks topTracksResponse
	if err := c.get(ctx, "user.getTopTracks", one, &tracks); err != nil {
		return nil, errors.Wrap(err, "total tracks")
	}

	return &UserStats{
		TotalScrobbles: count(recent.RecentTracks.Attr.Total),
		TotalArtists:   count(artists.TopArtists.Attr.Total),
		TotalAlbums:    count(albums.TopAlbums.Attr.Total),
		TotalTracks:    count(tracks.TopTracks.Attr.Total),
	}, nil
}

func topParams(limit int, period string) url.Values {
	if period == "" {
		period = DefaultPeriod
	}
	return url.Values{"limit": {strconv.Itoa(limit)}, "period": {period}}
}

// methodURL builds <base>/2.0/?method=..&user=..&api_key=..&format=json&<params>
func (c *Client) methodURL(method string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("method", method)
	q.Set("user", c.user)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	return c.baseURL + "/2.0/?" + q.Encode()
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "last.fm %s: waiting for request budget", method)
	}

	start := time.Now()
	var raw json.RawMessage
	if err := c.httpClient.GetJSON(ctx, c.methodURL(method, params), &raw); err != nil {
		return errors.Wrapf(err, "last.fm %s", method)
	}
	c.logger.Debugw("last.fm call", "method", method, "duration_ms", time.Since(start).Milliseconds())

	// Errors arrive as {"error": N, "message": "..."}, frequently with status 200
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Code != 0 {
		return errors.NewUpstreamError("last.fm %s: error %d: %s", method, apiErr.Code, apiErr.Message)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "last.fm %s: decode", method)
	}
	return nil
}
