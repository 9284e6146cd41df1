package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/homepage/cmd/homepage/commands"
	"github.com/teranos/homepage/errors"
)

var rootCmd = &cobra.Command{
	Use:   "homepage",
	Short: "homepage - personal website server",
	Long: `homepage - a personal website with live widgets and a guestbook.

Available commands:
  serve   - Start the HTTP server
  am      - Manage configuration ("I am")
  db      - Manage the guestbook database
  version - Show build information

Examples:
  homepage serve -v               # Start the server with info logging
  homepage am show                # Show current configuration
  homepage db stats               # Show database statistics`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 'am show' output is meant to be piped, keep logs out of it
		if cmd.Name() == "show" {
			return nil
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		return commands.InitLogger(verbosity)
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
