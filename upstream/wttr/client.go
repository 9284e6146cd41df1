// Package wttr fetches one-line weather reports from wttr.in.
package wttr

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/internal/httpclient"
)

// DefaultBaseURL is the public wttr.in host
const DefaultBaseURL = "http://wttr.in"

// Client fetches the weather for a fixed location
type Client struct {
	baseURL    string
	location   string
	httpClient *httpclient.Client
	logger     *zap.SugaredLogger
}

// Config holds wttr client configuration
type Config struct {
	BaseURL    string             // Default: DefaultBaseURL
	Location   string             // Required
	Timeout    time.Duration      // Default: 5s
	HTTPClient *httpclient.Client // nil = SSRF-guarded client with Timeout
	Logger     *zap.SugaredLogger // nil = nop logger
}

// NewClient creates a wttr.in client
func NewClient(config Config) (*Client, error) {
	if config.Location == "" {
		return nil, errors.New("wttr: location is required")
	}
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

	return &Client{
		baseURL:    config.BaseURL,
		location:   config.Location,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// reportURL is <base>/<location>?format=2, the compact one-line format
func (c *Client) reportURL() string {
	return c.baseURL + "/" + url.PathEscape(c.location) + "?format=2"
}

// Weather returns the current one-line report for the configured location
func (c *Client) Weather(ctx context.Context) (string, error) {
	report, err := c.httpClient.GetText(ctx, c.reportURL())
	if err != nil {
		return "", errors.Wrapf(err, "weather for %s", c.location)
	}
	if report == "" {
		return "", errors.NewUpstreamError("wttr returned an empty report for %s", c.location)
	}
	c.logger.Debugw("Weather fetched", "location", c.location)
	return report, nil
}
