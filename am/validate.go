package am

import (
	"net/url"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/pagination"
)

var lastfmPeriods = map[string]bool{
	"overall": true, "7day": true, "1month": true, "3month": true, "6month": true, "12month": true,
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	// The pool needs at least one worker to serve anything
	if c.Server.Workers <= 0 {
		return errors.Newf("server.workers must be > 0, got %d", c.Server.Workers)
	}
	if c.Server.ReadTimeoutSeconds < 0 {
		return errors.Newf("server.read_timeout_seconds must be >= 0, got %d", c.Server.ReadTimeoutSeconds)
	}
	if c.Server.WriteTimeoutSeconds < 0 {
		return errors.Newf("server.write_timeout_seconds must be >= 0, got %d", c.Server.WriteTimeoutSeconds)
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		return errors.Newf("server.shutdown_timeout_seconds must be >= 0, got %d", c.Server.ShutdownTimeoutSeconds)
	}

	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}
	if c.Static.Dir == "" {
		return errors.New("static.dir cannot be empty")
	}

	if err := validateBaseURL("lastfm.base_url", c.LastFM.BaseURL); err != nil {
		return err
	}
	if !lastfmPeriods[c.LastFM.Period] {
		return errors.Newf("lastfm.period %q is not one of overall, 7day, 1month, 3month, 6month, 12month", c.LastFM.Period)
	}
	if c.LastFM.TopLimit <= 0 {
		return errors.Newf("lastfm.top_limit must be > 0, got %d", c.LastFM.TopLimit)
	}
	if c.LastFM.RequestsPerSecond <= 0 {
		return errors.Newf("lastfm.requests_per_second must be > 0, got %f", c.LastFM.RequestsPerSecond)
	}
	if c.LastFM.TimeoutSeconds <= 0 {
		return errors.Newf("lastfm.timeout_seconds must be > 0, got %d", c.LastFM.TimeoutSeconds)
	}

	if err := validateBaseURL("weather.base_url", c.Weather.BaseURL); err != nil {
		return err
	}
	if c.Weather.Location == "" {
		return errors.New("weather.location cannot be empty")
	}
	if c.Weather.TimeoutSeconds <= 0 {
		return errors.Newf("weather.timeout_seconds must be > 0, got %d", c.Weather.TimeoutSeconds)
	}

	// TTL 0 means every request refetches, negative is invalid
	ttls := map[string]int{
		"cache.now_playing_ttl_seconds": c.Cache.NowPlayingTTLSeconds,
		"cache.top_lists_ttl_seconds":   c.Cache.TopListsTTLSeconds,
		"cache.user_stats_ttl_seconds":  c.Cache.UserStatsTTLSeconds,
		"cache.weather_ttl_seconds":     c.Cache.WeatherTTLSeconds,
	}
	for key, ttl := range ttls {
		if ttl < 0 {
			return errors.Newf("%s must be >= 0, got %d", key, ttl)
		}
	}

	if c.RateLimit.CooldownSeconds < 0 {
		return errors.Newf("ratelimit.cooldown_seconds must be >= 0, got %d", c.RateLimit.CooldownSeconds)
	}
	switch c.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.RateLimit.Redis.Addr == "" {
			return errors.New("ratelimit.redis.addr cannot be empty when backend is redis")
		}
		if c.RateLimit.CooldownSeconds == 0 {
			return errors.New("ratelimit.cooldown_seconds must be > 0 with the redis backend")
		}
	default:
		return errors.Newf("ratelimit.backend must be %q or %q, got %q",
			RateLimitBackendMemory, RateLimitBackendRedis, c.RateLimit.Backend)
	}

	if c.Guestbook.MaxAuthorLength <= 0 {
		return errors.Newf("guestbook.max_author_length must be > 0, got %d", c.Guestbook.MaxAuthorLength)
	}
	if c.Guestbook.MaxContentLength <= 0 {
		return errors.Newf("guestbook.max_content_length must be > 0, got %d", c.Guestbook.MaxContentLength)
	}

	if c.Guestbook.PageLimit <= 0 || c.Guestbook.PageLimit > pagination.MaxLimit {
		return errors.Newf("guestbook.page_limit must be in 1..%d, got %d", pagination.MaxLimit, c.Guestbook.PageLimit)
	}

	return nil
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "%s is not a valid URL", key)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf("%s must be an http(s) URL, got %q", key, raw)
	}
	if u.Host == "" {
		return errors.Newf("%s has no host: %q", key, raw)
	}
	return nil
}
