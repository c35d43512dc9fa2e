package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ha_location_proxy/internal/models"
)

type LocationSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewLocationSQLite(db *sql.DB) *LocationSQLite {
	return &LocationSQLite{db: db, now: time.Now}
}

var _ LocationRepo = (*LocationSQLite)(nil)

const (
	mockLocationRowID = 1

	upsertLocationSQL = `
		INSERT INTO mock_location (id, latitude, longitude, altitude, injected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			latitude=excluded.latitude,
			longitude=excluded.longitude,
			altitude=excluded.altitude,
			injected_at=excluded.injected_at
	`
	selectLocationSQL = `SELECT latitude, longitude, altitude, injected_at FROM mock_location WHERE id=?`
	deleteLocationSQL = `DELETE FROM mock_location WHERE id=?`
)

// Inject records lat/lon/alt as the currently reported location (row id always 1).
func (r *LocationSQLite) Inject(ctx context.Context, lat, lon, alt float64) error {
	_, err := r.db.ExecContext(ctx, upsertLocationSQL,
		mockLocationRowID, lat, lon, alt, r.now().UTC())
	if err != nil {
		return fmt.Errorf("upsert mock location: %w", err)
	}
	return nil
}

// Clear removes the reported location.
func (r *LocationSQLite) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deleteLocationSQL, mockLocationRowID); err != nil {
		return fmt.Errorf("delete mock location: %w", err)
	}
	return nil
}

// Load returns the reported location, or nil when nothing is injected.
func (r *LocationSQLite) Load(ctx context.Context) (*models.MockLocation, error) {
	var loc models.MockLocation
	err := r.db.QueryRowContext(ctx, selectLocationSQL, mockLocationRowID).
		Scan(&loc.Latitude, &loc.Longitude, &loc.Altitude, &loc.InjectedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select mock location: %w", err)
	}
	loc.InjectedAt = loc.InjectedAt.UTC()
	return &loc, nil
}
