package commands

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/teranos/homepage/am"
	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(verbosity int, cfg *am.Config) {
	versionInfo := version.Get()

	pterm.DefaultHeader.WithFullWidth(false).Println("homepage")

	lastfmUser := "not configured"
	if cfg.LastFM.Enabled() {
		lastfmUser = cfg.LastFM.User
	}

	rows := pterm.TableData{
		{"Version", fmt.Sprintf("%s (commit %s)", versionInfo.Version, versionInfo.Short())},
		{"Built", versionInfo.BuildTime},
		{"Verbosity", logger.LevelName(verbosity)},
		{"Listening", "http://" + cfg.Address()},
		{"Database", cfg.Database.Path},
		{"Workers", fmt.Sprintf("%d", cfg.Server.Workers)},
		{"Last.fm", lastfmUser},
		{"Weather", cfg.Weather.Location},
		{"Rate limit", fmt.Sprintf("%s, %s cooldown", cfg.RateLimit.Backend, cfg.Cooldown())},
	}
	if cfg.Metrics.Enabled {
		rows = append(rows, []string{"Metrics", "http://" + cfg.Address() + "/metrics"})
	}
	_ = pterm.DefaultTable.WithData(rows).Render()

	pterm.Println()
	pterm.Info.Println("Press Ctrl+C to stop")
}
