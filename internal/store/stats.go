package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gainhour/gainhour/internal/models"
)

// Aggregate queries only ever count closed rows (end_time IS NOT NULL).
// Open intervals have no settled duration yet; they become visible to the
// stats the moment the next heartbeat or close lands.

// TotalDuration returns the sum of closed log durations for one activity,
// in seconds.
func (s *Store) TotalDuration(activityID int64) (int64, error) {
	var total int64
	err := s.db.Get(&total, `
		SELECT COALESCE(SUM(duration), 0) FROM activity_logs
		WHERE activity_id = ? AND end_time IS NOT NULL`, activityID)
	if err != nil {
		return 0, fmt.Errorf("total duration for activity %d: %w", activityID, err)
	}
	return total, nil
}

// ActivityTotals returns per-activity closed-log totals over all time,
// largest first. Activities with no closed logs yet are included with a
// zero total.
func (s *Store) ActivityTotals() ([]*models.ActivityTotal, error) {
	var out []*models.ActivityTotal
	err := s.db.Select(&out, `
		SELECT a.name, a.kind, COALESCE(a.icon_path, '') AS icon_path,
		       COALESCE(SUM(l.duration), 0) AS total_seconds
		FROM activities a
		LEFT JOIN activity_logs l ON l.activity_id = a.id AND l.end_time IS NOT NULL
		GROUP BY a.id
		ORDER BY total_seconds DESC, a.name`)
	if err != nil {
		return nil, fmt.Errorf("activity totals: %w", err)
	}
	return out, nil
}

// ActivityTotalsBetween returns per-activity totals for closed logs that
// started in [from, to).
func (s *Store) ActivityTotalsBetween(from, to time.Time) ([]*models.ActivityTotal, error) {
	var out []*models.ActivityTotal
	err := s.db.Select(&out, `
		SELECT a.name, a.kind, COALESCE(a.icon_path, '') AS icon_path,
		       COALESCE(SUM(l.duration), 0) AS total_seconds
		FROM activities a
		JOIN activity_logs l ON l.activity_id = a.id
		WHERE l.end_time IS NOT NULL AND l.start_time >= ? AND l.start_time < ?
		GROUP BY a.id
		ORDER BY total_seconds DESC, a.name`,
		from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("activity totals between: %w", err)
	}
	return out, nil
}

// TodayTotals returns per-activity totals for logs started since local
// midnight.
func (s *Store) TodayTotals() ([]*models.ActivityTotal, error) {
	start := models.StartOfDay(s.now())
	return s.ActivityTotalsBetween(start, start.Add(24*time.Hour))
}

// DailyBreakdown returns one row per local calendar day with closed logs
// for the activity, most recent day first.
func (s *Store) DailyBreakdown(activityID int64) ([]*models.DailyTotal, error) {
	var out []*models.DailyTotal
	err := s.db.Select(&out, `
		SELECT date(start_time, 'unixepoch', 'localtime') AS day,
		       SUM(duration) AS total_seconds
		FROM activity_logs
		WHERE activity_id = ? AND end_time IS NOT NULL
		GROUP BY day
		ORDER BY day DESC`, activityID)
	if err != nil {
		return nil, fmt.Errorf("daily breakdown for activity %d: %w", activityID, err)
	}
	return out, nil
}

// DescriptionStats returns per-description usage counts and totals over
// the activity's closed description logs.
func (s *Store) DescriptionStats(activityID int64) (map[string]models.DescriptionStat, error) {
	rows := []struct {
		Description string `db:"description"`
		models.DescriptionStat
	}{}
	err := s.db.Select(&rows, `
		SELECT description, COUNT(*) AS count, SUM(duration) AS total_seconds
		FROM activity_description_logs
		WHERE activity_id = ? AND end_time IS NOT NULL
		GROUP BY description`, activityID)
	if err != nil {
		return nil, fmt.Errorf("description stats for activity %d: %w", activityID, err)
	}

	stats := make(map[string]models.DescriptionStat, len(rows))
	for _, r := range rows {
		stats[r.Description] = r.DescriptionStat
	}
	return stats, nil
}

// DescriptionLogs returns the most recent description logs for an activity
// (open ones included), each annotated with the historical usage stats of
// its description text. limit <= 0 means no limit.
func (s *Store) DescriptionLogs(activityID int64, limit int) ([]*models.DescriptionLogEntry, error) {
	q := `SELECT * FROM activity_description_logs WHERE activity_id = ? ORDER BY start_time DESC`
	args := []any{activityID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	var logs []*models.ActivityDescriptionLog
	if err := s.db.Select(&logs, q, args...); err != nil {
		return nil, fmt.Errorf("description logs for activity %d: %w", activityID, err)
	}
	if len(logs) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(logs))
	descs := make([]string, 0, len(logs))
	for _, l := range logs {
		if !seen[l.Description] {
			seen[l.Description] = true
			descs = append(descs, l.Description)
		}
	}

	query, inArgs, err := sqlx.In(`
		SELECT description, COUNT(*) AS count, SUM(duration) AS total_seconds
		FROM activity_description_logs
		WHERE activity_id = ? AND end_time IS NOT NULL AND description IN (?)
		GROUP BY description`, activityID, descs)
	if err != nil {
		return nil, err
	}

	statRows := []struct {
		Description string `db:"description"`
		models.DescriptionStat
	}{}
	if err := s.db.Select(&statRows, s.db.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("description log stats for activity %d: %w", activityID, err)
	}
	stats := make(map[string]models.DescriptionStat, len(statRows))
	for _, r := range statRows {
		stats[r.Description] = r.DescriptionStat
	}

	out := make([]*models.DescriptionLogEntry, 0, len(logs))
	for _, l := range logs {
		e := &models.DescriptionLogEntry{
			Description:  l.Description,
			StartTime:    l.StartTime,
			Duration:     l.Duration,
			Count:        stats[l.Description].Count,
			TotalSeconds: stats[l.Description].TotalSeconds,
		}
		if l.EndTime.Valid {
			e.EndTime = l.EndTime.Int64
		}
		out = append(out, e)
	}
	return out, nil
}
