package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/deskhost/internal/shared"
)

// Setting is one row of the settings table.
type Setting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// SettingsRepository persists frontend settings. Values are stored as JSON text.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new [SettingsRepository] with the given database connection
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored value for key, or [shared.ErrSettingNotFound].
func (r *SettingsRepository) Get(key string) (json.RawMessage, error) {
	var value sql.NullString
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSettingNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query setting: %w", err)
	}

	if !value.Valid {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(value.String), nil
}

// Set inserts or replaces the value for key. value must be valid JSON.
func (r *SettingsRepository) Set(key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("%w: setting key is empty", shared.ErrMissingArgument)
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: setting %s is not valid JSON", shared.ErrInvalidInput, key)
	}

	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`

	if _, err := r.db.Exec(query, key, string(value)); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key returns [shared.ErrSettingNotFound].
func (r *SettingsRepository) Delete(key string) error {
	ok, err := execOne(r.db, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSettingNotFound, key)
	}
	return nil
}

// List returns every setting ordered by key.
func (r *SettingsRepository) List() ([]Setting, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var (
			key   string
			value sql.NullString
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}

		s := Setting{Key: key, Value: json.RawMessage("null")}
		if value.Valid {
			s.Value = json.RawMessage(value.String)
		}
		settings = append(settings, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return settings, nil
}
