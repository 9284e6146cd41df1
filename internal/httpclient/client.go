// Package httpclient is the outbound HTTP client shared by the upstream API
// clients: timeouts, a User-Agent, SSRF guards and JSON/text helpers.
package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/teranos/homepage/errors"
)

// DefaultUserAgent identifies the homepage to upstream APIs
const DefaultUserAgent = "homepage (+https://github.com/teranos/homepage)"

// maxBodyBytes bounds how much of an upstream response is read
const maxBodyBytes = 2 << 20

// Client wraps http.Client with SSRF protection
type Client struct {
	*http.Client
	userAgent      string
	allowedSchemes []string
	blockPrivateIP bool
	maxRedirects   int
}

// Options allows customization of the client
type Options struct {
	Timeout        time.Duration // Default: 5s
	UserAgent      string        // Default: DefaultUserAgent
	AllowedSchemes []string      // Default: ["http", "https"]
	MaxRedirects   *int          // Default: 10
	BlockPrivateIP *bool         // Default: true
}

// New creates an HTTP client. Private and loopback destinations are refused
// unless BlockPrivateIP is explicitly false.
func New(opts Options) *Client {
	c := &Client{
		Client:         &http.Client{Timeout: opts.Timeout},
		userAgent:      opts.UserAgent,
		allowedSchemes: opts.AllowedSchemes,
		blockPrivateIP: true,
		maxRedirects:   10,
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.allowedSchemes == nil {
		c.allowedSchemes = []string{"http", "https"}
	}
	if opts.MaxRedirects != nil {
		c.maxRedirects = *opts.MaxRedirects
	}
	if opts.BlockPrivateIP != nil {
		c.blockPrivateIP = *opts.BlockPrivateIP
	}

	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= c.maxRedirects {
			return errors.Newf("stopped after %d redirects", c.maxRedirects)
		}
		if err := c.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	if c.blockPrivateIP {
		c.Transport = guardedTransport()
	}
	return c
}

// guardedTransport resolves the destination itself so a hostname that
// resolves to a private address is refused at dial time
func guardedTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}

			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to resolve host %q", host)
			}
			for _, ip := range ips {
				if isPrivateIP(ip) {
					return nil, errors.Newf("private IP address blocked: %s", ip)
				}
			}

			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// WrapClient wraps an existing http.Client without private-IP blocking.
// Only for tests that talk to httptest servers on loopback.
func WrapClient(client *http.Client) *Client {
	return &Client{
		Client:         client,
		userAgent:      DefaultUserAgent,
		allowedSchemes: []string{"http", "https"},
		blockPrivateIP: false,
		maxRedirects:   10,
	}
}

// GetJSON fetches rawURL and decodes a 2xx JSON body into v
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "decode response from %s", redact(rawURL))
	}
	return nil
}

// GetText fetches rawURL and returns the 2xx body with surrounding whitespace trimmed
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL, "text/plain")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", accept)

	resp, err := c.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", redact(rawURL))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "read response from %s", redact(rawURL))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := errors.NewUpstreamError("GET %s returned %d", redact(rawURL), resp.StatusCode)
		if snippet := strings.TrimSpace(string(body)); snippet != "" {
			err = errors.WithDetail(err, truncate(snippet, 200))
		}
		return nil, err
	}
	return body, nil
}

// Do executes an HTTP request with SSRF protection and the client's User-Agent
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.validateURL(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked by SSRF protection")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.Client.Do(req)
}

// ValidateURL validates a URL string before creating a request
func (c *Client) ValidateURL(urlStr string) (*url.URL, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if err := c.validateURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

// validateURL validates URL for SSRF protection before making request
func (c *Client) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	if !slices.Contains(c.allowedSchemes, scheme) {
		return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes)
	}

	// http://evil.com@localhost/ style confusion
	if u.User != nil {
		return errors.New("URL contains userinfo (potential SSRF attempt)")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return errors.New("URL missing hostname")
	}

	if c.blockPrivateIP {
		if isLocalhost(hostname) {
			return errors.New("localhost access blocked")
		}
		// DNS rebinding is handled by the guarded transport
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return errors.Newf("private IP address blocked: %s", hostname)
		}
	}
	return nil
}

// redact strips the query string, which carries API keys
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
