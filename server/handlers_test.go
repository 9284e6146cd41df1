package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/internal/httpclient"
	"github.com/teranos/homepage/upstream/lastfm"
)

const htmlContentType = "text/html; charset=utf-8"

func TestNowPlaying_CachedAcrossRequests(t *testing.T) {
	var calls atomic.Int32
	ts := newTestServer(t, withSources(Sources{
		NowPlaying: func(context.Context) (*lastfm.Track, error) {
			calls.Add(1)
			return &lastfm.Track{Name: "Roygbiv", Artist: "Boards of Canada", IsPlaying: true}, nil
		},
	}))

	for i := 0; i < 3; i++ {
		rec := ts.get("/comp/now-playing")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, htmlContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "♫ Now Playing: Roygbiv by Boards of Canada ♫")
		assert.Contains(t, rec.Body.String(), "hx-trigger='every 1m'")
	}
	assert.Equal(t, int32(1), calls.Load(), "fresh slot must not refetch")
}

func TestNowPlaying_NothingPlaying(t *testing.T) {
	ts := newTestServer(t, withSources(Sources{
		NowPlaying: func(context.Context) (*lastfm.Track, error) { return nil, nil },
	}))

	assert.Contains(t, ts.get("/comp/now-playing").Body.String(), "☹ Nothing playing right now ☹")
}

func TestFragments_PlaceholderWithoutData(t *testing.T) {
	failing := errors.NewUpstreamError("last.fm is down")
	ts := newTestServer(t, withSources(Sources{
		NowPlaying: func(context.Context) (*lastfm.Track, error) { return nil, failing },
		Weather:    func(context.Context) (string, error) { return "", failing },
		// Top lists and stats have no source at all
	}))

	paths := []string{
		"/comp/now-playing",
		"/comp/server-weather",
		"/comp/top-artists",
		"/comp/top-tracks",
		"/comp/top-albums",
		"/comp/user-stats",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := ts.get(path)
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, fmt.Sprintf("hx-get='%s'", path))
			assert.Contains(t, body, "hx-trigger='load'")
			assert.Contains(t, body, "loading...")
		})
	}
}

func TestWeather_StaleOnFailure(t *testing.T) {
	var fail atomic.Bool
	ts := newTestServer(t,
		withSources(Sources{
			Weather: func(context.Context) (string, error) {
				if fail.Load() {
					return "", errors.New("wttr.in timed out")
				}
				return "Eindhoven: ☀️ +21°C", nil
			},
		}),
		func(_ *Config, deps *Deps) {
			deps.Slots = NewSlots(SlotTTLs{}) // every request refetches
		},
	)

	assert.Contains(t, ts.get("/comp/server-weather").Body.String(), "+21°C")
	fail.Store(true)
	body := ts.get("/comp/server-weather").Body.String()
	assert.Contains(t, body, "+21°C", "previous report is served when the refresh fails")
	assert.Contains(t, body, "hx-trigger='every 5m'")
}

func TestUptime(t *testing.T) {
	ts := newTestServer(t)
	body := ts.get("/comp/server-uptime").Body.String()
	assert.Contains(t, body, fmt.Sprintf("data-ts=%q", fmt.Sprint(bootTime.UnixMilli())))
	assert.Contains(t, body, `data-type="uptime"`)

	ts.sources.BootTime = func() (time.Time, error) { return time.Time{}, errors.New("no /proc") }
	assert.Contains(t, ts.get("/comp/server-uptime").Body.String(), "Couldn't read uptime")
}

func TestTopLists_FromLastFM(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1month", q.Get("period"))
		assert.Equal(t, "2", q.Get("limit"))
		switch q.Get("method") {
		case "user.getTopArtists":
			w.Write([]byte(`{"topartists":{"artist":[{"name":"Autechre","playcount":"9"},{"name":"Plaid","playcount":"4"}],"@attr":{"total":"2"}}}`))
		case "user.getTopTracks":
			w.Write([]byte(`{"toptracks":{"track":[{"name":"Eutow","artist":{"name":"Autechre"}}],"@attr":{"total":"1"}}}`))
		default:
			w.Write([]byte(`{"error":6,"message":"Invalid parameters"}`))
		}
	}))
	t.Cleanup(api.Close)

	client := lastfm.NewClient(lastfm.Config{
		APIKey:     "key",
		User:       "someone",
		BaseURL:    api.URL,
		HTTPClient: httpclient.WrapClient(api.Client()),
	})
	ts := newTestServer(t, withSources(LastFMSources(client, 2, "1month")))

	artists := ts.get("/comp/top-artists").Body.String()
	assert.Contains(t, artists, `<span class="rank-col">1.</span><span class="truncate" title="Autechre">Autechre</span>`)
	assert.Contains(t, artists, `<span class="rank-col">2.</span>`)
	assert.NotContains(t, artists, "hx-get", "top lists do not poll once loaded")

	tracks := ts.get("/comp/top-tracks").Body.String()
	assert.Contains(t, tracks, "Eutow")

	// The API error payload leaves the slot empty
	assert.Contains(t, ts.get("/comp/top-albums").Body.String(), "loading...")
}

func TestProjectsFragment(t *testing.T) {
	ts := newTestServer(t)

	first := ts.get("/comp/projects?limit=2").Body.String()
	assert.Contains(t, first, "homepage")
	assert.Contains(t, first, "raytracer")
	assert.NotContains(t, first, "synth")
	assert.Contains(t, first, `hx-get="/comp/projects?last_id=2&amp;limit=2"`)

	second := ts.get("/comp/projects?last_id=2&limit=2").Body.String()
	assert.Contains(t, second, "synth")
	assert.NotContains(t, second, "load-more-trigger")
}

func TestProjectsFragment_ConfiguredPageLimit(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config, _ *Deps) { cfg.PageLimit = 1 })

	body := ts.get("/comp/projects").Body.String()
	assert.Contains(t, body, "homepage")
	assert.NotContains(t, body, "raytracer")
	assert.Contains(t, body, `hx-get="/comp/projects?last_id=1&amp;limit=1"`)
}

func TestMessagesFragment_Paging(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := ts.store.Append(ctx, "ann", fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	first := ts.get("/comp/messages?limit=2").Body.String()
	assert.Contains(t, first, "message 5")
	assert.Contains(t, first, "message 4")
	assert.NotContains(t, first, "message 3")
	assert.Contains(t, first, `hx-get="/comp/messages?last_id=4&amp;limit=2"`)
	assert.Less(t, strings.Index(first, "message 5"), strings.Index(first, "message 4"), "newest first")

	last := ts.get("/comp/messages?last_id=2&limit=2").Body.String()
	assert.Contains(t, last, "message 1")
	assert.NotContains(t, last, "load-more-trigger")
}

func TestMessagesFragment_ReadFailureRendersEmpty(t *testing.T) {
	ts := newTestServer(t, withMessages(&stubMessages{readErr: errors.New("disk on fire")}))

	rec := ts.get("/comp/messages")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, strings.TrimSpace(rec.Body.String()))
}

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name        string
		author      string
		content     string
		wantTitle   string
		wantDesc    string
		wantStored  bool
		wantContent string
	}{
		{
			name: "success", author: "ann", content: "hello there",
			wantStored: true, wantContent: "hello there",
		},
		{
			name: "blank author is anonymous", author: "  ", content: "who am i",
			wantStored: true, wantContent: "<h3>Anonymous</h3>",
		},
		{
			name: "long author is truncated", author: "Bartholomew", content: "hi",
			wantStored: true, wantContent: "<h3>Bartholo</h3>",
		},
		{
			name: "empty content", author: "ann", content: "   ",
			wantTitle: "Content empty", wantDesc: "No content supplied",
		},
		{
			name: "content too long", author: "ann", content: strings.Repeat("a", 21),
			wantTitle: "Content too long", wantDesc: "Messages are limited to 20 characters.",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(postForm(fmt.Sprintf("203.0.113.%d", i+1), tt.author, tt.content))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, htmlContentType, rec.Header().Get("Content-Type"))
			body := rec.Body.String()

			count, err := ts.store.Count(context.Background())
			require.NoError(t, err)

			if tt.wantStored {
				assert.Equal(t, int64(1), count)
				assert.Contains(t, body, tt.wantContent)
				assert.True(t, strings.HasSuffix(body, `<div id="form-feedback" hx-swap-oob="true"></div>`),
					"success clears the feedback box")
				return
			}
			assert.Equal(t, int64(0), count)
			assert.Contains(t, body, "<h3>"+tt.wantTitle+"</h3>")
			assert.Contains(t, body, tt.wantDesc)
			assert.NotContains(t, body, "font-small error", "validation feedback is not error styled")
		})
	}
}

func TestPostMessage_RateLimited(t *testing.T) {
	ts := newTestServer(t)

	require.Contains(t, ts.do(postForm("198.51.100.1", "ann", "first")).Body.String(), "first")

	rec := ts.do(postForm("198.51.100.1", "ann", "second"))
	assert.Equal(t, http.StatusOK, rec.Code, "htmx only swaps 2xx")
	assert.Equal(t, "10", rec.Header().Get("Retry-After"))
	body := rec.Body.String()
	assert.Contains(t, body, "<h3>Rate limited</h3>")
	assert.Contains(t, body, "being too fast! Try again in a few seconds.")
	assert.Contains(t, body, "font-small error")

	// Another client is unaffected
	assert.Contains(t, ts.do(postForm("198.51.100.2", "bob", "third")).Body.String(), "third")

	count, err := ts.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPostMessage_EmptyPostUsesWindow(t *testing.T) {
	ts := newTestServer(t)

	assert.Contains(t, ts.do(postForm("198.51.100.9", "ann", "")).Body.String(), "Content empty")
	assert.Contains(t, ts.do(postForm("198.51.100.9", "ann", "now with text")).Body.String(), "Rate limited")
}

func TestPostMessage_UnresolvableIdentity(t *testing.T) {
	ts := newTestServer(t)
	req := postForm("198.51.100.3", "ann", "hello")
	req.RemoteAddr = "not-an-address"

	assert.Contains(t, ts.do(req).Body.String(), "Rate limited")
	assert.Equal(t, 0, ts.limiter.Len(), "denied before the limiter is consulted")
}

func TestPostMessage_ForwardedIdentity(t *testing.T) {
	ts := newTestServer(t)
	post := func(forwarded string) string {
		req := postForm("10.0.0.1", "ann", "via proxy")
		req.Header.Set("X-Forwarded-For", forwarded)
		return ts.do(req).Body.String()
	}

	assert.Contains(t, post("192.0.2.10"), "via proxy")
	assert.Contains(t, post("192.0.2.11, 10.0.0.1"), "via proxy", "distinct clients behind one proxy")
	assert.Contains(t, post("192.0.2.10"), "Rate limited")
}

func TestPostMessage_UnreadableBody(t *testing.T) {
	ts := newTestServer(t)
	big := "content=" + strings.Repeat("x", maxFormBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/comp/messages", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body := ts.do(req).Body.String()
	assert.Contains(t, body, "<h3>Error while posting</h3>")
	assert.Contains(t, body, "The server could not read the given data.")
	assert.Contains(t, body, "font-small error")
}

func TestPostMessage_StoreFailure(t *testing.T) {
	ts := newTestServer(t, withMessages(&stubMessages{appendErr: errors.New("database is locked")}))

	body := ts.do(postForm("198.51.100.4", "ann", "hello")).Body.String()
	assert.Contains(t, body, "<h3>Error while creating message</h3>")
	assert.Contains(t, body, "The server could not create your message")
	assert.Contains(t, body, "font-small error")
}

func TestUnknownComponent(t *testing.T) {
	ts := newTestServer(t)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/comp/nope", nil),
		httptest.NewRequest(http.MethodDelete, "/comp/messages", nil),
	} {
		rec := ts.do(req)
		assert.Equal(t, http.StatusNotFound, rec.Code, req.Method+" "+req.URL.Path)
		assert.Contains(t, rec.Body.String(), "Page Not Found")
		assert.NotContains(t, rec.Body.String(), "<!DOCTYPE html>", "fragments are never wrapped")
	}
}

func TestPages(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path       string
		title      string
		wantStatus int
		wantBody   string
	}{
		{"/", "Home", http.StatusOK, `data-type="uptime"`},
		{"/home", "Home", http.StatusOK, `data-type="clock"`},
		{"/guestbook", "Guestbook", http.StatusOK, `hx-post="/comp/messages"`},
		{"/projects", "Projects", http.StatusOK, `hx-get="/comp/projects"`},
		{"/interests", "Interests", http.StatusOK, "/comp/top-artists"},
		{"/missing", "Not Found", http.StatusNotFound, "Page Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			full := ts.get(tt.path)
			assert.Equal(t, tt.wantStatus, full.Code)
			assert.Equal(t, htmlContentType, full.Header().Get("Content-Type"))
			assert.Contains(t, full.Body.String(), "<!DOCTYPE html>")
			assert.Contains(t, full.Body.String(), "<title>"+tt.title+"</title>")
			assert.Contains(t, full.Body.String(), tt.wantBody)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("HX-Request", "true")
			partial := ts.do(req)
			assert.Equal(t, tt.wantStatus, partial.Code)
			assert.NotContains(t, partial.Body.String(), "<!DOCTYPE html>")
			assert.Contains(t, partial.Body.String(), tt.wantBody)
		})
	}
}

func TestPages_NonGetIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodPost, "/home", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Not Found</title>")
}

func TestHome_InlinesCachedValues(t *testing.T) {
	ts := newTestServer(t, withSources(Sources{
		Weather: func(context.Context) (string, error) { return "Eindhoven: 🌧 +9°C", nil },
	}))

	before := ts.get("/home").Body.String()
	assert.NotContains(t, before, "+9°C", "home does not fetch")

	ts.get("/comp/server-weather")
	after := ts.get("/home").Body.String()
	assert.Contains(t, after, "+9°C")
}

func TestFetcher_NilSource(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	fetch := fetcher[string](req, SlotWeather, nil)
	_, err := fetch()
	require.Error(t, err)
	assert.True(t, errors.IsServiceUnavailableError(err))
	assert.Contains(t, err.Error(), "weather source not configured")
}

func TestFetcher_OutlivesRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	fetch := fetcher(req, SlotWeather, func(ctx context.Context) (string, error) {
		return "ok", ctx.Err()
	})
	cancel()

	got, err := fetch()
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

var _ MessageStore = (*stubMessages)(nil)
