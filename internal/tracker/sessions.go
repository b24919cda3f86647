package tracker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gainhour/gainhour/internal/models"
)

// ErrNoManualSession is returned when stopping or annotating a manual
// session that is not running.
var ErrNoManualSession = errors.New("no manual session running for activity")

// StartManual opens a manual session for the named activity, creating the
// activity if needed. Already-running sessions are a no-op. Starting
// manually un-ignores the process name and displaces a matching auto
// session; manual sessions for different activities run concurrently.
func (e *Engine) StartManual(name string, kind models.ActivityKind, description string) (*models.Activity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if kind == "" {
		kind = models.KindIRL
	}

	act, err := e.store.GetOrCreateActivity(name, kind, description, "")
	if err != nil {
		return nil, err
	}

	if _, ignored := e.ignored[act.Name]; ignored {
		delete(e.ignored, act.Name)
		e.saveIgnored()
	}

	if _, running := e.manual[act.ID]; running {
		return act, nil
	}

	// Manual wins: a coincidentally matching auto session is closed
	// before the manual log opens, never alongside it.
	if e.current != nil && e.current.ID == act.ID {
		e.stopAuto()
	}

	desc := description
	if desc == "" {
		desc = act.DescriptionText()
	}
	if desc == "" {
		desc = defaultManualDescription
	}

	logID, err := e.store.StartLog(act.ID)
	if err != nil {
		return nil, fmt.Errorf("start manual session: %w", err)
	}
	descLogID, err := e.store.StartDescriptionLog(act.ID, desc)
	if err != nil {
		return nil, fmt.Errorf("start manual session: %w", err)
	}
	if description != "" && act.Kind != models.KindApp {
		if err := e.store.UpdateDescription(act.ID, description); err != nil {
			e.storeErr(err, "update description")
		}
	}

	e.manual[act.ID] = &manualSession{
		activity:    act,
		logID:       logID,
		descLogID:   descLogID,
		description: desc,
		startedAt:   e.now(),
	}
	e.manualOrder = append(e.manualOrder, act.ID)
	e.log.Info().Str("activity", act.Name).Msg("manual session started")
	return act, nil
}

// StopManual closes the manual session for an activity.
func (e *Engine) StopManual(activityID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.manual[activityID]
	if !ok {
		return ErrNoManualSession
	}

	if m.descLogID != 0 {
		if err := e.store.StopDescriptionLog(m.descLogID); err != nil {
			e.storeErr(err, "close manual description log")
		}
	}
	if err := e.store.StopLog(m.logID); err != nil {
		e.storeErr(err, "close manual log")
	}

	delete(e.manual, activityID)
	for i, id := range e.manualOrder {
		if id == activityID {
			e.manualOrder = append(e.manualOrder[:i], e.manualOrder[i+1:]...)
			break
		}
	}
	e.log.Info().Str("activity", m.activity.Name).Msg("manual session stopped")
	return nil
}

// UpdateManualDescription rotates the session's description log to a new
// note. The activity log itself is untouched.
func (e *Engine) UpdateManualDescription(activityID int64, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.manual[activityID]
	if !ok {
		return ErrNoManualSession
	}

	if m.descLogID != 0 {
		if err := e.store.StopDescriptionLog(m.descLogID); err != nil {
			e.storeErr(err, "close manual description log")
		}
	}
	descLogID, err := e.store.StartDescriptionLog(activityID, text)
	if err != nil {
		return fmt.Errorf("update manual description: %w", err)
	}
	m.descLogID = descLogID
	m.description = text

	if m.activity.Kind != models.KindApp {
		if err := e.store.UpdateDescription(activityID, text); err != nil {
			e.storeErr(err, "update description")
		}
	}
	return nil
}

// SetIgnored adds or removes a process name from the ignore list. Adding
// force-stops a matching auto session and drops its open-session entry;
// manual sessions are unaffected.
func (e *Engine) SetIgnored(name string, ignored bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ignored {
		e.ignored[name] = struct{}{}
		if e.lastFocusedProc == name {
			e.stopAuto()
		}
		delete(e.open, name)
	} else {
		delete(e.ignored, name)
	}
	e.saveIgnored()
}

// Pin sets the presence pin to an existing activity.
func (e *Engine) Pin(activityID int64) error {
	act, err := e.store.Activity(activityID)
	if err != nil {
		return err
	}
	if act == nil {
		return fmt.Errorf("activity %d not found", activityID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pinned = act
	e.log.Info().Str("activity", act.Name).Msg("presence pinned")
	return nil
}

// Unpin clears the presence pin.
func (e *Engine) Unpin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pinned = nil
}

// ReconnectPresence re-establishes the broadcast connection. This is the
// only path that retries after a broadcast failure.
func (e *Engine) ReconnectPresence() error {
	return e.presence.Reconnect()
}

// loadIgnored restores the persisted ignore list, falling back to the
// defaults on first run. Called once from New, before the loop starts.
func (e *Engine) loadIgnored() {
	v, err := e.store.Setting(models.SettingIgnoredProcesses, strings.Join(DefaultIgnoredProcesses, ","))
	if err != nil {
		e.log.Warn().Err(err).Msg("loading ignore list failed, using defaults")
		v = strings.Join(DefaultIgnoredProcesses, ",")
	}
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			e.ignored[name] = struct{}{}
		}
	}
}

// saveIgnored persists the ignore list. Called with the lock held.
func (e *Engine) saveIgnored() {
	names := make([]string, 0, len(e.ignored))
	for name := range e.ignored {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := e.store.SetSetting(models.SettingIgnoredProcesses, strings.Join(names, ",")); err != nil {
		e.storeErr(err, "save ignore list")
	}
}

// AutoStatus describes the focus-tracked activity.
type AutoStatus struct {
	ActivityID int64  `json:"activity_id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
}

// OpenStatus describes one open-window session.
type OpenStatus struct {
	ActivityID  int64  `json:"activity_id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Focused     bool   `json:"focused"`
	FocusedSecs int64  `json:"focused_seconds"`
	LastFocus   int64  `json:"last_focus,omitempty"`
}

// ManualStatus describes one running manual session.
type ManualStatus struct {
	ActivityID  int64  `json:"activity_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartedAt   int64  `json:"started_at"`
}

// Status is a consistent snapshot of the engine for the API and tray.
type Status struct {
	StartedAt         int64          `json:"started_at"`
	Auto              *AutoStatus    `json:"auto,omitempty"`
	Open              []OpenStatus   `json:"open"`
	Manual            []ManualStatus `json:"manual"`
	Pinned            string         `json:"pinned,omitempty"`
	Ignored           []string       `json:"ignored"`
	PresenceConnected bool           `json:"presence_connected"`
}

// Status returns the engine's current state under the lock.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		StartedAt:         e.startedAt.Unix(),
		Open:              []OpenStatus{},
		Manual:            []ManualStatus{},
		PresenceConnected: e.presence.Connected(),
	}

	if e.current != nil {
		st.Auto = &AutoStatus{
			ActivityID: e.current.ID,
			Name:       e.current.Name,
			Title:      e.lastWindowTitle,
		}
	}
	if e.pinned != nil {
		st.Pinned = e.pinned.Name
	}

	for _, sess := range e.open {
		o := OpenStatus{
			ActivityID:  sess.activity.ID,
			Name:        sess.activity.Name,
			Title:       sess.title,
			Focused:     sess.focused,
			FocusedSecs: int64(sess.accumulated / time.Second),
		}
		if !sess.lastFocus.IsZero() {
			o.LastFocus = sess.lastFocus.Unix()
		}
		st.Open = append(st.Open, o)
	}
	sort.Slice(st.Open, func(i, j int) bool { return st.Open[i].Name < st.Open[j].Name })

	for _, id := range e.manualOrder {
		m := e.manual[id]
		st.Manual = append(st.Manual, ManualStatus{
			ActivityID:  m.activity.ID,
			Name:        m.activity.Name,
			Description: m.description,
			StartedAt:   m.startedAt.Unix(),
		})
	}

	for name := range e.ignored {
		st.Ignored = append(st.Ignored, name)
	}
	sort.Strings(st.Ignored)
	return st
}
