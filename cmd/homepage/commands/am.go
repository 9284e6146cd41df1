package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/homepage/am"
	"github.com/teranos/homepage/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage homepage configuration",
	Long: `am: Manage homepage configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/homepage/config.toml)
3. User config (~/.homepage/am.toml)
4. Project config (./am.toml, searched up from the working directory)
5. Environment variables (HOMEPAGE_* prefix)
6. Command line flags (serve only)

Examples:
  homepage am show                    # Show current configuration
  homepage am show --format json      # Show configuration in JSON format
  homepage am get lastfm.user         # Get specific config value
  homepage am validate                # Validate current configuration
  homepage am where                   # Show which source set each value`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective homepage configuration from all sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := am.Load(); err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		return writeConfig(cmd.OutOrStdout(), am.GetViper().AllSettings(), configFormat)
	},
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., database.path, server.workers)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !am.IsSet(key) {
			return errors.Newf("configuration key %q not found", key)
		}
		fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
		return nil
	},
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "configuration validation failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
		return nil
	},
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `List the config files that were merged, then every setting with the
source that set it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		files := am.Sources()
		if len(files) == 0 {
			fmt.Fprintln(out, "No config files found, using defaults and environment")
		} else {
			fmt.Fprintln(out, "Merged config files (later overrides earlier):")
			for i, f := range files {
				fmt.Fprintf(out, "  %d. %s\n", i+1, f)
			}
		}
		fmt.Fprintln(out)

		for _, s := range am.Introspect() {
			value := fmt.Sprint(s.Value)
			if isSecretKey(s.Key) && value != "" {
				value = "********"
			}
			source := string(s.Source)
			if s.SourcePath != "" {
				source += " (" + s.SourcePath + ")"
			}
			fmt.Fprintf(out, "  %-40s %-30s %s\n", s.Key, value, source)
		}
		return nil
	},
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

// writeConfig marshals the effective settings in format with secrets masked.
// Keys are the file keys, so toml output can be saved as an am.toml.
func writeConfig(w io.Writer, settings map[string]interface{}, format string) error {
	masked := maskSecrets(settings, "")

	switch format {
	case "json":
		data, err := json.MarshalIndent(masked, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(w, string(data))

	case "yaml":
		data, err := yaml.Marshal(masked)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(w, "# homepage configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(masked)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(w, "# homepage configuration\n%s", data)

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

// maskSecrets returns a copy of settings with non-empty secrets replaced
func maskSecrets(settings map[string]interface{}, prefix string) map[string]interface{} {
	out := make(map[string]interface{}, len(settings))
	for k, v := range settings {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = maskSecrets(val, key)
		default:
			if isSecretKey(key) && fmt.Sprint(val) != "" {
				out[k] = "********"
			} else {
				out[k] = val
			}
		}
	}
	return out
}

func isSecretKey(key string) bool {
	return key == "lastfm.api_key" || key == "ratelimit.redis.password"
}
