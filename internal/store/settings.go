package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gainhour/gainhour/internal/models"
)

// Setting returns the stored value for key, or fallback when the key has
// never been written.
func (s *Store) Setting(key, fallback string) (string, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting writes a setting, creating or overwriting it.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write setting %q: %w", key, err)
	}
	return nil
}

// Settings returns all stored settings ordered by key.
func (s *Store) Settings() ([]*models.Setting, error) {
	var out []*models.Setting
	if err := s.db.Select(&out, `SELECT * FROM settings ORDER BY key`); err != nil {
		return nil, err
	}
	return out, nil
}

// BoolSetting reads a boolean setting stored as "True"/"False".
func (s *Store) BoolSetting(key string, fallback bool) (bool, error) {
	def := models.BoolFalse
	if fallback {
		def = models.BoolTrue
	}
	v, err := s.Setting(key, def)
	if err != nil {
		return false, err
	}
	return v == models.BoolTrue, nil
}
