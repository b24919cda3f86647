// Package store implements the SQLite record store for activities, logs,
// description logs and settings.
package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS activities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'app',
	description TEXT,
	icon_path TEXT,
	broadcast_visible INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	UNIQUE(name, kind)
);

CREATE TABLE IF NOT EXISTS activity_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	activity_id INTEGER NOT NULL REFERENCES activities(id),
	start_time INTEGER NOT NULL,
	end_time INTEGER,
	duration INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS activity_description_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	activity_id INTEGER NOT NULL REFERENCES activities(id),
	description TEXT NOT NULL,
	start_time INTEGER NOT NULL,
	end_time INTEGER,
	duration INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_logs_activity ON activity_logs(activity_id);
CREATE INDEX IF NOT EXISTS idx_activity_logs_start ON activity_logs(start_time);
CREATE INDEX IF NOT EXISTS idx_desc_logs_activity ON activity_description_logs(activity_id);
CREATE INDEX IF NOT EXISTS idx_desc_logs_start ON activity_description_logs(start_time);
`

// Store wraps the SQLite database. All write operations are safe to call
// from multiple goroutines; SQLite serializes them on a single connection.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// A single connection avoids SQLITE_BUSY between the poll loop and
	// the HTTP handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, log: log, now: time.Now}, nil
}

// SetClock overrides the time source. Test support only.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WipeAll clears every table in one transaction. Used only by the explicit
// user-initiated data reset.
func (s *Store) WipeAll() error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM activity_description_logs`,
		`DELETE FROM activity_logs`,
		`DELETE FROM activities`,
		`DELETE FROM settings`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("wipe: %w", err)
		}
	}
	return tx.Commit()
}
