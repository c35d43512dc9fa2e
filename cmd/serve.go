package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "ha_location_proxy/docs"
	"ha_location_proxy/internal/config"
	"ha_location_proxy/internal/handlers"
	"ha_location_proxy/internal/hass"
	"ha_location_proxy/internal/location"
	"ha_location_proxy/internal/logger"
	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/repository"
	"ha_location_proxy/internal/repository/db"
	"ha_location_proxy/internal/server"
	"ha_location_proxy/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the polling daemon and the HTTP control API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP listen port")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.Log.Level)

	sqlDB, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := newServices(cfg, repos, log)
	if err := services.Seed(cmd.Context(), seedSettings(cfg)); err != nil {
		log.Errorw("settings_seed_failed", "err", err)
	}
	apiHandler := handlers.NewHandler(services, log.Component("http"))

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		services.Spoofer.Run(ctx)
	}()

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, engineDone, log)
	return nil
}

// newServices builds the service layer around the Home Assistant client and
// the permission-guarded location sink.
func newServices(cfg *config.Config, repos *repository.Repository, log *logger.Logger) *service.Service {
	client := hass.NewClient(cfg.HTTP.ConnectTimeout, cfg.HTTP.ReadTimeout)
	fetcher := hass.NewFetcher(client, cfg.Fetch.MaxAttempts, cfg.Fetch.InitialBackoff, log.Component("hass"))

	mockAllowed := cfg.Location.MockAllowed
	sink := location.NewPermissionGuard(repos.LocationRepo, func() bool { return mockAllowed })

	return service.NewService(repos, service.Deps{
		Fetcher:               fetcher,
		Sink:                  sink,
		SigningKey:            cfg.Auth.SigningKey,
		TokenTTL:              cfg.Auth.TokenTTL,
		AllowSignUp:           cfg.Auth.AllowSignUp,
		UnauthorizedThreshold: cfg.Engine.UnauthorizedThreshold,
		Log:                   log,
	})
}

func seedSettings(cfg *config.Config) models.Settings {
	return models.Settings{
		BaseURL:             cfg.HA.BaseURL,
		Token:               cfg.HA.Token,
		EntityID:            cfg.HA.EntityID,
		PollIntervalSeconds: cfg.HA.PollIntervalSeconds,
	}
}

func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http_server_started", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT/SIGTERM, then stops the engine (which
// clears the reported location) and drains HTTP requests.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, engineDone <-chan struct{}, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	select {
	case <-engineDone:
	case <-ctx.Done():
		log.Warnw("engine_shutdown_timeout")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
