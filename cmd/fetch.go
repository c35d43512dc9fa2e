package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"ha_location_proxy/internal/logger"
	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/repository"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the configured entity once and print the result",
	Long: `Fetch runs one request against Home Assistant using the stored settings.
Blank stored values fall back to the config file, and --base-url, --token
and --entity override both. Nothing is written to the settings store.

Example:
  ha-location-proxy fetch --entity device_tracker.car`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("base-url", "", "Home Assistant base URL")
	fetchCmd.Flags().String("token", "", "long-lived access token")
	fetchCmd.Flags().String("entity", "", "entity id, e.g. device_tracker.car")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	services := newServices(cfg, repository.NewRepository(sqlDB), log)
	stored, err := services.Snapshot(ctx)
	if err != nil {
		return err
	}

	patch := configOverrides(stored, seedSettings(cfg))
	mergeOverrides(&patch, fetchOverrides(cmd.Flags()))

	res, err := services.Entity.RefreshWith(ctx, patch)
	if err != nil {
		return err
	}
	printRefresh(cmd.OutOrStdout(), res)
	return nil
}

// fetchOverrides returns only the flags the user actually set.
func fetchOverrides(flags *pflag.FlagSet) models.SettingsPatch {
	var p models.SettingsPatch
	pick := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	p.BaseURL = pick("base-url")
	p.Token = pick("token")
	p.EntityID = pick("entity")
	return p
}

// configOverrides fills settings the store leaves blank from config, the
// same values serve would seed, without writing them.
func configOverrides(stored, seed models.Settings) models.SettingsPatch {
	var p models.SettingsPatch
	fill := func(storedValue, seedValue string) *string {
		if strings.TrimSpace(storedValue) != "" || strings.TrimSpace(seedValue) == "" {
			return nil
		}
		return &seedValue
	}
	p.BaseURL = fill(stored.BaseURL, seed.BaseURL)
	p.Token = fill(stored.Token, seed.Token)
	p.EntityID = fill(stored.EntityID, seed.EntityID)
	return p
}

// mergeOverrides lets every field set in top replace the one in dst.
func mergeOverrides(dst *models.SettingsPatch, top models.SettingsPatch) {
	if top.BaseURL != nil {
		dst.BaseURL = top.BaseURL
	}
	if top.Token != nil {
		dst.Token = top.Token
	}
	if top.EntityID != nil {
		dst.EntityID = top.EntityID
	}
}

func printRefresh(w io.Writer, res models.RefreshResult) {
	fmt.Fprintln(w, res.Label)
	if res.Attributes == nil {
		return
	}
	if lat, lon, ok := res.Attributes.Coordinates(); ok {
		fmt.Fprintf(w, "latitude=%v longitude=%v altitude=%v\n", lat, lon, res.Attributes.AltitudeOrZero())
	}
	if res.Attributes.FriendlyName != nil {
		fmt.Fprintf(w, "name=%s\n", *res.Attributes.FriendlyName)
	}
}
