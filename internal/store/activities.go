package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gainhour/gainhour/internal/models"
)

// GetOrCreateActivity resolves an activity by (name, kind), creating it on
// first observation. The lookup is a single upsert so concurrent callers
// cannot race a read-then-write into duplicate rows. An existing row with a
// missing icon reference is opportunistically backfilled.
//
// App-kind activities never persist a description at creation time; their
// display name is stable and transient window titles are tracked through
// description logs instead.
func (s *Store) GetOrCreateActivity(name string, kind models.ActivityKind, description, iconPath string) (*models.Activity, error) {
	if kind == models.KindApp {
		description = ""
	}

	var a models.Activity
	err := s.db.Get(&a, `
		INSERT INTO activities (name, kind, description, icon_path, broadcast_visible, created_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(name, kind) DO UPDATE SET
			icon_path = COALESCE(activities.icon_path, excluded.icon_path)
		RETURNING id, name, kind, description, icon_path, broadcast_visible, created_at`,
		name, kind, nullString(description), nullString(iconPath), s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("get or create activity %q: %w", name, err)
	}
	return &a, nil
}

// Activity fetches an activity by id. Returns nil if it does not exist.
func (s *Store) Activity(id int64) (*models.Activity, error) {
	var a models.Activity
	err := s.db.Get(&a, `SELECT * FROM activities WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ActivityByName fetches an activity by (name, kind). Returns nil if it
// does not exist.
func (s *Store) ActivityByName(name string, kind models.ActivityKind) (*models.Activity, error) {
	var a models.Activity
	err := s.db.Get(&a, `SELECT * FROM activities WHERE name = ? AND kind = ?`, name, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Activities returns all activities ordered by name.
func (s *Store) Activities() ([]*models.Activity, error) {
	var out []*models.Activity
	if err := s.db.Select(&out, `SELECT * FROM activities ORDER BY name`); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateVisibility sets the broadcast-visible flag.
func (s *Store) UpdateVisibility(id int64, visible bool) error {
	_, err := s.db.Exec(`UPDATE activities SET broadcast_visible = ? WHERE id = ?`, visible, id)
	return err
}

// UpdateDescription overwrites the stored description. App-kind rows are
// left untouched: their titles are recorded only as description logs.
func (s *Store) UpdateDescription(id int64, description string) error {
	_, err := s.db.Exec(
		`UPDATE activities SET description = ? WHERE id = ? AND kind != ?`,
		nullString(description), id, models.KindApp)
	return err
}

// UpdateIcon overwrites the icon reference.
func (s *Store) UpdateIcon(id int64, iconPath string) error {
	_, err := s.db.Exec(`UPDATE activities SET icon_path = ? WHERE id = ?`, nullString(iconPath), id)
	return err
}

// DeleteActivity removes an activity and cascades to both log tables.
// The removed activity is returned so callers can clean up external
// resources such as cached icon files.
func (s *Store) DeleteActivity(id int64) (*models.Activity, error) {
	a, err := s.Activity(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM activity_description_logs WHERE activity_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM activity_logs WHERE activity_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM activities WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
