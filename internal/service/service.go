package service

import (
	"context"
	"time"

	"ha_location_proxy/internal/location"
	"ha_location_proxy/internal/logger"
	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Settings is the observable settings store.
type Settings interface {
	Snapshot(ctx context.Context) (models.Settings, error)
	Subscribe(ctx context.Context) <-chan models.Settings
	SetPollingEnabled(ctx context.Context, enabled bool) error
	SetSpoofingEnabled(ctx context.Context, enabled bool) error
	Update(ctx context.Context, p models.SettingsPatch) error
	Seed(ctx context.Context, initial models.Settings) error
}

// Spoofer runs the poll loop. Stop via context cancellation in main() for graceful shutdown.
type Spoofer interface {
	Run(ctx context.Context)
	Status() models.Status
	SubscribeStatus(ctx context.Context) <-chan models.Status
	Running() bool
}

// Entity performs manual one-shot fetches.
type Entity interface {
	Refresh(ctx context.Context) (models.RefreshResult, error)
	RefreshWith(ctx context.Context, override models.SettingsPatch) (models.RefreshResult, error)
}

// Location exposes the currently reported location.
type Location interface {
	Current(ctx context.Context) (*models.MockLocation, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PollEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Settings
	Spoofer
	Entity
	Location
	EventLog
	Authorization
}

// Deps are the collaborators built outside the repository layer.
type Deps struct {
	Fetcher               StateFetcher
	Sink                  location.Sink
	SigningKey            string
	TokenTTL              time.Duration
	AllowSignUp           bool
	UnauthorizedThreshold int
	Log                   *logger.Logger
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	settings := NewSettingsService(repos.SettingsRepo, deps.Log.Component("settings"))
	return &Service{
		Settings: settings,
		Spoofer: NewSpooferService(settings, deps.Fetcher, deps.Sink, repos.EventRepo,
			deps.UnauthorizedThreshold, deps.Log.Component("engine")),
		Entity:        NewEntityService(settings, deps.Fetcher),
		Location:      NewLocationService(repos.LocationRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, deps.SigningKey, deps.TokenTTL, deps.AllowSignUp),
	}
}
