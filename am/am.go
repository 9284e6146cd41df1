package am

import (
	"fmt"
	"time"
)

// Config represents the homepage configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Static    StaticConfig    `mapstructure:"static"`
	Content   ContentConfig   `mapstructure:"content"`
	LastFM    LastFMConfig    `mapstructure:"lastfm"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Guestbook GuestbookConfig `mapstructure:"guestbook"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener and the request worker pool
type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	Workers                int    `mapstructure:"workers"`                  // Request workers (default: 4)
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds"`     // 0 = no timeout
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds"`    // 0 = no timeout
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"` // Graceful drain budget
}

// Server defaults
const (
	DefaultServerPort    = 3000
	DefaultServerWorkers = 4
)

// DatabaseConfig configures the SQLite message log
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StaticConfig configures the /static file tree
type StaticConfig struct {
	Dir string `mapstructure:"dir"`
}

// ContentConfig locates the editable site content
type ContentConfig struct {
	ProjectsFile  string `mapstructure:"projects_file"` // TOML file with [[project]] entries
	TextDir       string `mapstructure:"text_dir"`      // ascii.txt, welcome.txt, bulletpoints.txt
	WatchProjects bool   `mapstructure:"watch_projects"`
}

// LastFMConfig configures the last.fm API client
type LastFMConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	User              string  `mapstructure:"user"`
	BaseURL           string  `mapstructure:"base_url"`
	Period            string  `mapstructure:"period"`    // overall, 7day, 1month, 3month, 6month, 12month
	TopLimit          int     `mapstructure:"top_limit"` // Entries in top lists
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
}

// Enabled reports whether enough is configured to call last.fm
func (c LastFMConfig) Enabled() bool {
	return c.APIKey != "" && c.User != ""
}

// WeatherConfig configures the wttr.in client
type WeatherConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Location       string `mapstructure:"location"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CacheConfig holds the TTL of each cached upstream resource
type CacheConfig struct {
	NowPlayingTTLSeconds int `mapstructure:"now_playing_ttl_seconds"`
	TopListsTTLSeconds   int `mapstructure:"top_lists_ttl_seconds"`
	UserStatsTTLSeconds  int `mapstructure:"user_stats_ttl_seconds"`
	WeatherTTLSeconds    int `mapstructure:"weather_ttl_seconds"`
}

// RateLimitConfig configures the guestbook write limiter
type RateLimitConfig struct {
	CooldownSeconds int         `mapstructure:"cooldown_seconds"`
	Backend         string      `mapstructure:"backend"` // memory or redis
	Redis           RedisConfig `mapstructure:"redis"`
}

// Rate limiter backends
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// RedisConfig configures the redis limiter backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// GuestbookConfig bounds guestbook input and paging
type GuestbookConfig struct {
	MaxAuthorLength  int `mapstructure:"max_author_length"`  // Longer authors are truncated
	MaxContentLength int `mapstructure:"max_content_length"` // Longer messages are rejected
	PageLimit        int `mapstructure:"page_limit"`         // Messages and projects per page
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig configures log output
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

// File permission constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Address returns host:port for the HTTP listener
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ShutdownTimeout returns the graceful shutdown budget
func (c *Config) ShutdownTimeout() time.Duration {
	return seconds(c.Server.ShutdownTimeoutSeconds)
}

// Cooldown returns the per-identity guestbook cooldown
func (c *Config) Cooldown() time.Duration {
	return seconds(c.RateLimit.CooldownSeconds)
}

// NowPlayingTTL returns how long a now-playing answer stays fresh
func (c *Config) NowPlayingTTL() time.Duration {
	return seconds(c.Cache.NowPlayingTTLSeconds)
}

// TopListsTTL returns the TTL shared by the top artists, tracks and albums slots
func (c *Config) TopListsTTL() time.Duration {
	return seconds(c.Cache.TopListsTTLSeconds)
}

// UserStatsTTL returns the TTL of the user stats slot
func (c *Config) UserStatsTTL() time.Duration {
	return seconds(c.Cache.UserStatsTTLSeconds)
}

// WeatherTTL returns the TTL of the weather slot
func (c *Config) WeatherTTL() time.Duration {
	return seconds(c.Cache.WeatherTTLSeconds)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Address: %s, Database: %s, Workers: %d, RateLimit: %s}",
		c.Address(), c.Database.Path, c.Server.Workers, c.RateLimit.Backend)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
