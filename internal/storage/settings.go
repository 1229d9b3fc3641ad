package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/terra-clan/symposium-registry/internal/models"
)

// SettingsTable stores site settings as JSONB rows keyed by name
type SettingsTable struct {
	db *sql.DB
}

// OpenSettingsTable opens a database/sql handle over lib/pq and pings it
func OpenSettingsTable(ctx context.Context, dsn string, maxOpen, maxIdle int) (*SettingsTable, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping settings database: %w", err)
	}

	return NewSettingsTable(db), nil
}

// NewSettingsTable wraps an existing handle
func NewSettingsTable(db *sql.DB) *SettingsTable {
	return &SettingsTable{db: db}
}

// ListSettings returns every stored row
func (t *SettingsTable) ListSettings(ctx context.Context) ([]models.SettingRow, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT key, value FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var out []models.SettingRow
	for rows.Next() {
		var row models.SettingRow
		var value []byte
		if err := rows.Scan(&row.Key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		row.Value = json.RawMessage(value)
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return out, nil
}

// UpsertSetting writes one key, creating the row if needed
func (t *SettingsTable) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("setting %s: value is not valid JSON", key)
	}

	query := `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := t.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}
	return nil
}

// Ping checks database connectivity
func (t *SettingsTable) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the handle
func (t *SettingsTable) Close() error {
	return t.db.Close()
}
