package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/homepage/am"
	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
)

// ServeCmd starts the homepage HTTP server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the homepage server",
	Long: `Start the homepage HTTP server.

Pages and fragments are rendered on a fixed pool of request workers. Last.fm
and weather data are cached per resource and refreshed on demand. Guestbook
messages are stored in SQLite.

Ctrl+C drains in-flight requests and exits; a second Ctrl+C exits immediately.`,
	RunE: runServe,
}

var (
	servePort    int
	serveDBPath  string
	serveWorkers int
)

func init() {
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port)")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Database path (overrides database.path)")
	ServeCmd.Flags().IntVar(&serveWorkers, "workers", 0, "Request workers (overrides server.workers)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(cmd *cobra.Command, cfg *am.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("db-path") {
		cfg.Database.Path = serveDBPath
	}
	if cmd.Flags().Changed("workers") {
		cfg.Server.Workers = serveWorkers
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = logger.VerbosityInfo
		if err := InitLogger(verbosity); err != nil {
			return err
		}
	}
	defer logger.Cleanup()

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return errors.WithHint(
			errors.Wrap(err, "invalid configuration"),
			"run 'homepage am where' to see which file set each value")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := buildApp(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warnw("Cleanup failed", logger.FieldError, err)
		}
	}()

	printStartupBanner(verbosity, cfg)

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- a.server.Stop()
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("Force shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}
