package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gainhour/gainhour/internal/models"
)

// StartLog opens a new activity log with start=now and no end time.
func (s *Store) StartLog(activityID int64) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO activity_logs (activity_id, start_time) VALUES (?, ?)`,
		activityID, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("start log for activity %d: %w", activityID, err)
	}
	return res.LastInsertId()
}

// StartDescriptionLog opens a new description log with start=now.
func (s *Store) StartDescriptionLog(activityID int64, description string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO activity_description_logs (activity_id, description, start_time) VALUES (?, ?, ?)`,
		activityID, description, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("start description log for activity %d: %w", activityID, err)
	}
	return res.LastInsertId()
}

// StopLog stamps end=now and duration=end-start. It doubles as the
// heartbeat: calling it repeatedly keeps moving the end time forward, and
// calling it on an already-closed row is a harmless re-write.
func (s *Store) StopLog(id int64) error {
	now := s.now().Unix()
	_, err := s.db.Exec(
		`UPDATE activity_logs SET end_time = ?, duration = ? - start_time WHERE id = ?`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("stop log %d: %w", id, err)
	}
	return nil
}

// StopDescriptionLog is the description-log counterpart of StopLog.
func (s *Store) StopDescriptionLog(id int64) error {
	now := s.now().Unix()
	_, err := s.db.Exec(
		`UPDATE activity_description_logs SET end_time = ?, duration = ? - start_time WHERE id = ?`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("stop description log %d: %w", id, err)
	}
	return nil
}

// CleanupIncompleteLogs closes every log row left open by an ungraceful
// shutdown. Interrupted intervals are closed at their start time with zero
// duration: a bounded, predictable loss rather than a guessed one.
func (s *Store) CleanupIncompleteLogs() error {
	res, err := s.db.Exec(
		`UPDATE activity_logs SET end_time = start_time, duration = 0 WHERE end_time IS NULL`)
	if err != nil {
		return fmt.Errorf("cleanup incomplete logs: %w", err)
	}
	n, _ := res.RowsAffected()

	res, err = s.db.Exec(
		`UPDATE activity_description_logs SET end_time = start_time, duration = 0 WHERE end_time IS NULL`)
	if err != nil {
		return fmt.Errorf("cleanup incomplete description logs: %w", err)
	}
	d, _ := res.RowsAffected()

	if n > 0 || d > 0 {
		s.log.Info().Int64("logs", n).Int64("description_logs", d).Msg("closed interrupted log rows")
	}
	return nil
}

// CleanupOldDescriptionLogs deletes description logs that started before
// cutoff. Used on startup when the daily-logs-only retention setting is on.
func (s *Store) CleanupOldDescriptionLogs(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM activity_description_logs WHERE start_time < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup old description logs: %w", err)
	}
	return res.RowsAffected()
}

// Log fetches an activity log by id. Returns nil if it does not exist.
func (s *Store) Log(id int64) (*models.ActivityLog, error) {
	var l models.ActivityLog
	err := s.db.Get(&l, `SELECT * FROM activity_logs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DescriptionLog fetches a description log by id. Returns nil if it does
// not exist.
func (s *Store) DescriptionLog(id int64) (*models.ActivityDescriptionLog, error) {
	var l models.ActivityDescriptionLog
	err := s.db.Get(&l, `SELECT * FROM activity_description_logs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// OpenLogCount returns how many activity logs are currently open for the
// given activity.
func (s *Store) OpenLogCount(activityID int64) (int, error) {
	var n int
	err := s.db.Get(&n,
		`SELECT COUNT(*) FROM activity_logs WHERE activity_id = ? AND end_time IS NULL`,
		activityID)
	return n, err
}
