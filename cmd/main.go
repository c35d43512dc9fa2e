package main

import (
	"fmt"
	"os"

	"ha_location_proxy/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version   = "0.1.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "ha-location-proxy",
	Short: "Report a Home Assistant entity's location as this device's location",
	Long: `ha-location-proxy polls one Home Assistant entity and, while spoofing is
enabled, reports that entity's coordinates as the current mock location.

Running without a sub-command starts the daemon (same as "serve").`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ha-location-proxy version %s (commit: %s, built: %s)\n", version, commit, buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default configs/config.yml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("db", "", "path to the sqlite database")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig binds command-line flags over file/env values and loads the config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	bindings := map[string]string{
		"log.level": "log-level",
		"db.path":   "db",
		"port":      "port",
	}
	for key, flag := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}
	return config.Load(v, configFile)
}
