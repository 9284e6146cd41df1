package wttr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/internal/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:    srv.URL,
		Location:   "Eindhoven",
		HTTPClient: httpclient.WrapClient(srv.Client()),
	})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	c, err := NewClient(Config{Location: "Eindhoven"})
	require.NoError(t, err)
	assert.Equal(t, "http://wttr.in/Eindhoven?format=2", c.reportURL())
}

func TestReportURL_EscapesLocation(t *testing.T) {
	c, err := NewClient(Config{Location: "New York"})
	require.NoError(t, err)
	assert.Equal(t, "http://wttr.in/New%20York?format=2", c.reportURL())
}

func TestWeather(t *testing.T) {
	var gotPath, gotFormat string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFormat = r.URL.Query().Get("format")
		w.Write([]byte("⛅️  🌡️+14°C 🌬️↙11km/h\n"))
	})

	report, err := c.Weather(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "⛅️  🌡️+14°C 🌬️↙11km/h", report)
	assert.Equal(t, "/Eindhoven", gotPath)
	assert.Equal(t, "2", gotFormat)
}

func TestWeather_Failures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := c.Weather(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsUpstreamError(err))
	})

	t.Run("empty body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("  \n"))
		})
		_, err := c.Weather(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty report")
	})
}
