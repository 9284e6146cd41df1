package commands

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/homepage/am"
	"github.com/teranos/homepage/db"
	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/guestbook"
	"github.com/teranos/homepage/logger"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the homepage database",
	Long: `db: Manage the guestbook database

Examples:
  homepage db migrate             # Apply pending schema migrations
  homepage db stats               # Show message count and schema version
  homepage db stats --db-path x   # Inspect another database file`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  "Display the message count, applied migrations and pending migrations",
	RunE:  runDbStats,
}

var dbPathFlag string

func init() {
	DbCmd.PersistentFlags().StringVar(&dbPathFlag, "db-path", "", "Database path (overrides database.path)")

	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

// resolveDBPath returns --db-path, or database.path from the config
func resolveDBPath() (string, error) {
	if dbPathFlag != "" {
		return dbPathFlag, nil
	}
	cfg, err := am.Load()
	if err != nil {
		return "", errors.Wrap(err, "failed to load config")
	}
	return cfg.Database.Path, nil
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}

	database, err := db.OpenWithMigrations(path, logger.Logger.Named("db"))
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := db.Applied(database)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s is up to date\n", path)
	for _, m := range applied {
		fmt.Fprintf(out, "  %s  applied %s\n", m.Version, m.AppliedAt)
	}
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	// Stats never creates a database as a side effect
	if _, err := os.Stat(path); err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "database %s", path),
			"run 'homepage db migrate' to create it")
	}

	database, err := db.Open(path, logger.Logger.Named("db"))
	if err != nil {
		return err
	}
	defer database.Close()

	return writeStats(cmd, path, database)
}

func writeStats(cmd *cobra.Command, path string, database *sql.DB) error {
	out := cmd.OutOrStdout()

	pending, err := db.Pending(database)
	if err != nil {
		return err
	}
	applied, _ := db.Applied(database)

	schema := "none"
	if len(applied) > 0 {
		schema = applied[len(applied)-1].Version
	}

	fmt.Fprintln(out, "Database Statistics")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(out, "Database Path:      %s\n", path)
	fmt.Fprintf(out, "Schema Version:     %s\n", schema)
	fmt.Fprintf(out, "Pending Migrations: %d\n", len(pending))

	if len(applied) == 0 {
		fmt.Fprintln(out, "Messages:           - (schema not created)")
		return nil
	}

	count, err := guestbook.NewStore(database, logger.Logger).Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Messages:           %d\n", count)
	return nil
}
