package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

var _ SettingsRepo = (*SettingsSQLite)(nil)

const (
	upsertSettingSQL = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
	selectSettingsSQL = `SELECT key, value FROM settings`
	deleteSettingSQL  = `DELETE FROM settings WHERE key = ?`
)

// LoadAll returns every stored key. Missing keys are simply absent from the map.
func (r *SettingsSQLite) LoadAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, selectSettingsSQL)
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

// Put inserts or replaces a single key.
func (r *SettingsSQLite) Put(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, upsertSettingSQL, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert setting %q: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting a missing key is not an error.
func (r *SettingsSQLite) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, deleteSettingSQL, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}
