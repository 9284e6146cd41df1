package am

import (
	"github.com/spf13/viper"

	"github.com/teranos/homepage/pagination"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.workers", DefaultServerWorkers)
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	// Database defaults
	v.SetDefault("database.path", "homepage.db")

	// Static files and content
	v.SetDefault("static.dir", "./static")
	v.SetDefault("content.projects_file", "./static/projects.toml")
	v.SetDefault("content.text_dir", "./static")
	v.SetDefault("content.watch_projects", true)

	// Last.fm defaults (api_key and user have no default)
	v.SetDefault("lastfm.api_key", "")
	v.SetDefault("lastfm.user", "")
	v.SetDefault("lastfm.base_url", "https://ws.audioscrobbler.com")
	v.SetDefault("lastfm.period", "1month")
	v.SetDefault("lastfm.top_limit", 10)
	v.SetDefault("lastfm.requests_per_second", 5.0) // last.fm asks for at most 5 req/s per key
	v.SetDefault("lastfm.timeout_seconds", 5)

	// Weather defaults
	v.SetDefault("weather.base_url", "http://wttr.in")
	v.SetDefault("weather.location", "Eindhoven")
	v.SetDefault("weather.timeout_seconds", 5)

	// Cache TTLs
	v.SetDefault("cache.now_playing_ttl_seconds", 30)
	v.SetDefault("cache.top_lists_ttl_seconds", 3600)
	v.SetDefault("cache.user_stats_ttl_seconds", 3600)
	v.SetDefault("cache.weather_ttl_seconds", 900)

	// Guestbook rate limiting
	v.SetDefault("ratelimit.cooldown_seconds", 10)
	v.SetDefault("ratelimit.backend", RateLimitBackendMemory)
	v.SetDefault("ratelimit.redis.addr", "localhost:6379")
	v.SetDefault("ratelimit.redis.password", "")
	v.SetDefault("ratelimit.redis.db", 0)
	v.SetDefault("ratelimit.redis.prefix", "homepage:ratelimit:")

	// Guestbook input bounds
	v.SetDefault("guestbook.max_author_length", 64)
	v.SetDefault("guestbook.max_content_length", 2000)
	v.SetDefault("guestbook.page_limit", pagination.DefaultLimit)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.json", false)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("lastfm.api_key", "HOMEPAGE_LASTFM_API_KEY", "LASTFM_API_KEY")
	v.BindEnv("ratelimit.redis.password", "HOMEPAGE_REDIS_PASSWORD")

	// Database path
	v.BindEnv("database.path", "HOMEPAGE_DATABASE_PATH")
}
