// Package models defines the shared data types persisted by the store
// and exchanged between the daemon and its clients.
package models

import (
	"database/sql"
	"time"
)

// ActivityKind classifies what an activity tracks.
type ActivityKind string

const (
	// KindApp is an application observed through the window sensor.
	KindApp ActivityKind = "app"
	// KindIRL is a user-defined real-world activity tracked manually.
	KindIRL ActivityKind = "irl"
)

// Activity is a named trackable thing. The (name, kind) pair is unique;
// activities are created lazily on first observation.
type Activity struct {
	ID               int64          `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Kind             ActivityKind   `db:"kind" json:"kind"`
	Description      sql.NullString `db:"description" json:"-"`
	IconPath         sql.NullString `db:"icon_path" json:"icon_path,omitempty"`
	BroadcastVisible bool           `db:"broadcast_visible" json:"broadcast_visible"`
	CreatedAt        int64          `db:"created_at" json:"created_at"`
}

// DescriptionText returns the stored description, or empty if unset.
func (a *Activity) DescriptionText() string {
	if a.Description.Valid {
		return a.Description.String
	}
	return ""
}

// ActivityLog is one continuous tracked interval for one activity.
// EndTime is NULL while the interval is open; Duration is recomputed on
// every heartbeat and on close, never derived by readers.
type ActivityLog struct {
	ID         int64         `db:"id" json:"id"`
	ActivityID int64         `db:"activity_id" json:"activity_id"`
	StartTime  int64         `db:"start_time" json:"start_time"`
	EndTime    sql.NullInt64 `db:"end_time" json:"end_time,omitempty"`
	Duration   int64         `db:"duration" json:"duration"`
}

// Open reports whether the log interval has not been closed yet.
func (l *ActivityLog) Open() bool {
	return !l.EndTime.Valid
}

// ActivityDescriptionLog tracks how long a window carried one exact title
// (or manual note) under a given activity. Its lifetime is always contained
// in the parent activity log's lifetime.
type ActivityDescriptionLog struct {
	ID          int64         `db:"id" json:"id"`
	ActivityID  int64         `db:"activity_id" json:"activity_id"`
	Description string        `db:"description" json:"description"`
	StartTime   int64         `db:"start_time" json:"start_time"`
	EndTime     sql.NullInt64 `db:"end_time" json:"end_time,omitempty"`
	Duration    int64         `db:"duration" json:"duration"`
}

// Open reports whether the log interval has not been closed yet.
func (l *ActivityDescriptionLog) Open() bool {
	return !l.EndTime.Valid
}

// Setting is a flat string key/value pair, last write wins.
type Setting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// Setting keys the daemon core reads. Boolean settings store the strings
// "True"/"False" for compatibility with existing databases.
const (
	SettingDiscordEnabled   = "discord_enabled"
	SettingDailyLogsOnly    = "daily_logs_only"
	SettingRunOnStartup     = "run_on_startup"
	SettingIgnoredProcesses = "ignored_processes"

	BoolTrue  = "True"
	BoolFalse = "False"
)

// ActivityTotal is an aggregate of closed log durations for one activity.
type ActivityTotal struct {
	Name         string       `db:"name" json:"name"`
	Kind         ActivityKind `db:"kind" json:"kind"`
	TotalSeconds int64        `db:"total_seconds" json:"total_seconds"`
	IconPath     string       `db:"icon_path" json:"icon_path,omitempty"`
}

// DailyTotal is the closed-log total for one local calendar day.
type DailyTotal struct {
	Day          string `db:"day" json:"day"`
	TotalSeconds int64  `db:"total_seconds" json:"total_seconds"`
}

// DescriptionStat aggregates usage of one description string.
type DescriptionStat struct {
	Count        int64 `db:"count" json:"count"`
	TotalSeconds int64 `db:"total_seconds" json:"total_seconds"`
}

// DescriptionLogEntry is a description log row joined with the historical
// usage stats for its description text.
type DescriptionLogEntry struct {
	Description  string `json:"description"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time,omitempty"`
	Duration     int64  `json:"duration"`
	Count        int64  `json:"count"`
	TotalSeconds int64  `json:"total_seconds"`
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
