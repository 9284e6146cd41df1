package commands

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teranos/homepage/am"
	"github.com/teranos/homepage/cache"
	"github.com/teranos/homepage/db"
	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/guestbook"
	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/metrics"
	"github.com/teranos/homepage/pool"
	"github.com/teranos/homepage/projects"
	"github.com/teranos/homepage/ratelimit"
	"github.com/teranos/homepage/server"
	"github.com/teranos/homepage/ui"
	"github.com/teranos/homepage/upstream/lastfm"
	"github.com/teranos/homepage/upstream/wttr"
)

// app is a fully wired homepage: the server plus the resources it owns
type app struct {
	server   *server.HomepageServer
	database *sql.DB
	redis    *redis.Client

	stopWatch context.CancelFunc
}

// Close releases everything the server depended on. Stop the server first.
func (a *app) Close() error {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close redis"))
		}
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close database"))
		}
	}
	return errors.Join(errs...)
}

// buildApp constructs every component from cfg. On error, whatever was
// already opened is closed again.
func buildApp(ctx context.Context, cfg *am.Config, log *zap.SugaredLogger) (_ *app, err error) {
	log = logger.OrNop(log)
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.database, err = db.OpenWithMigrations(cfg.Database.Path, log.Named("db"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	store := guestbook.NewStore(a.database, log.Named("guestbook"))

	catalog := projects.NewCatalog(cfg.Content.ProjectsFile, log.Named("projects"))
	if err := catalog.Reload(); err != nil {
		// The page still works; it shows an empty list until the file is fixed
		log.Warnw("Couldn't load projects", logger.FieldFile, cfg.Content.ProjectsFile, logger.FieldError, err)
	}
	if cfg.Content.WatchProjects {
		var watchCtx context.Context
		watchCtx, a.stopWatch = context.WithCancel(ctx)
		if err := catalog.Watch(watchCtx); err != nil {
			log.Warnw("Couldn't watch projects file", logger.FieldFile, cfg.Content.ProjectsFile, logger.FieldError, err)
		}
	}

	renderer, err := ui.NewRenderer(cfg.Content.TextDir, log.Named("ui"),
		ui.WithPeriodLabel(ui.PeriodLabel(cfg.LastFM.Period)))
	if err != nil {
		return nil, err
	}

	var collector *metrics.Collector
	var poolOpts []pool.Option
	cacheOpts := []cache.Option{cache.WithLogger(log.Named("cache"))}
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		poolOpts = append(poolOpts, pool.WithObserver(collector))
		cacheOpts = append(cacheOpts, cache.WithObserver(collector))
	}

	workers, err := pool.New(pool.Config{Workers: cfg.Server.Workers}, log.Named("pool"), poolOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			workers.Shutdown()
		}
	}()

	slots := server.NewSlots(server.SlotTTLs{
		NowPlaying: cfg.NowPlayingTTL(),
		TopLists:   cfg.TopListsTTL(),
		UserStats:  cfg.UserStatsTTL(),
		Weather:    cfg.WeatherTTL(),
	}, cacheOpts...)

	limiter, err := a.buildLimiter(ctx, cfg, collector, log.Named("ratelimit"))
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(cfg, log)
	if err != nil {
		return nil, err
	}

	a.server, err = server.NewHomepageServer(server.Config{
		Addr:            cfg.Address(),
		ReadTimeout:     time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:    time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		ShutdownTimeout: cfg.ShutdownTimeout(),
		StaticDir:       cfg.Static.Dir,
		Limits: guestbook.Limits{
			MaxAuthorLength:  cfg.Guestbook.MaxAuthorLength,
			MaxContentLength: cfg.Guestbook.MaxContentLength,
		},
		RetryAfter: cfg.Cooldown(),
		PageLimit:  cfg.Guestbook.PageLimit,
	}, server.Deps{
		Pool:     workers,
		Renderer: renderer,
		Messages: store,
		Projects: catalog,
		Limiter:  limiter,
		Slots:    slots,
		Sources:  sources,
		Metrics:  collector,
		Logger:   log.Named("server"),
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) buildLimiter(ctx context.Context, cfg *am.Config, collector *metrics.Collector, log *zap.SugaredLogger) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Backend {
	case am.RateLimitBackendRedis:
		rc := cfg.RateLimit.Redis
		rdb, err := ratelimit.NewRedisClient(ctx, rc.Addr, rc.Password, rc.DB)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect rate limiter to redis")
		}
		a.redis = rdb

		opts := []ratelimit.RedisOption{ratelimit.WithRedisPrefix(rc.Prefix), ratelimit.WithRedisLogger(log)}
		if collector != nil {
			opts = append(opts, ratelimit.WithRedisObserver(collector))
		}
		return ratelimit.NewRedisCooldown(rdb, cfg.Cooldown(), opts...)

	default:
		opts := []ratelimit.CooldownOption{ratelimit.WithLogger(log)}
		if collector != nil {
			opts = append(opts, ratelimit.WithObserver(collector))
		}
		cooldown := ratelimit.NewCooldown(cfg.Cooldown(), opts...)
		if collector != nil {
			collector.TrackIdentities(cooldown.Len)
		}
		return cooldown, nil
	}
}

// buildSources wires the upstream clients. Without last.fm credentials the
// music fragments stay placeholders.
func buildSources(cfg *am.Config, log *zap.SugaredLogger) (server.Sources, error) {
	var sources server.Sources

	if cfg.LastFM.Enabled() {
		client := lastfm.NewClient(lastfm.Config{
			APIKey:            cfg.LastFM.APIKey,
			User:              cfg.LastFM.User,
			BaseURL:           cfg.LastFM.BaseURL,
			Timeout:           time.Duration(cfg.LastFM.TimeoutSeconds) * time.Second,
			RequestsPerSecond: cfg.LastFM.RequestsPerSecond,
			Logger:            log.Named("lastfm"),
		})
		sources = server.LastFMSources(client, cfg.LastFM.TopLimit, cfg.LastFM.Period)
	} else {
		log.Warnw("last.fm is not configured, music widgets will stay empty",
			"hint", "set lastfm.user and "+am.EnvVar("lastfm.api_key"))
	}

	weather, err := wttr.NewClient(wttr.Config{
		BaseURL:  cfg.Weather.BaseURL,
		Location: cfg.Weather.Location,
		Timeout:  time.Duration(cfg.Weather.TimeoutSeconds) * time.Second,
		Logger:   log.Named("wttr"),
	})
	if err != nil {
		return sources, err
	}
	sources.Weather = weather.Weather

	return sources, nil
}
