package repository

import (
	"context"
	"database/sql"
	"time"

	"ha_location_proxy/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	CreateFirst(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// SettingsRepo is a flat key/value store for proxy settings.
type SettingsRepo interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.PollEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.PollEvent, error)
}

// LocationRepo persists the location currently reported through the sink.
type LocationRepo interface {
	Inject(ctx context.Context, lat, lon, alt float64) error
	Clear(ctx context.Context) error
	Load(ctx context.Context) (*models.MockLocation, error)
}

type Repository struct {
	SettingsRepo SettingsRepo
	EventRepo    EventRepo
	LocationRepo LocationRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SettingsRepo: NewSettingsSQLite(db),
		EventRepo:    NewEventSQLite(db),
		LocationRepo: NewLocationSQLite(db),
		Auth:         NewUserSQLite(db),
	}
}
