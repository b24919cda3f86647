// Package tracker implements the per-tick reconciliation engine: it turns
// polled window snapshots into activity logs, maintains open and manual
// session bookkeeping, and drives the presence broadcast.
package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gainhour/gainhour/internal/icons"
	"github.com/gainhour/gainhour/internal/models"
	"github.com/gainhour/gainhour/internal/presence"
	"github.com/gainhour/gainhour/internal/sensor"
	"github.com/gainhour/gainhour/internal/store"
)

// selfWindowMarker identifies this application's own windows; they are
// never tracked.
const selfWindowMarker = "Gainhour"

// defaultManualDescription labels manual sessions started without a note.
const defaultManualDescription = "Manual Session"

// DefaultIgnoredProcesses are shell surfaces that hold focus constantly
// and carry no time-accounting value.
var DefaultIgnoredProcesses = []string{
	"explorer.exe",
	"SearchApp.exe",
	"ShellExperienceHost.exe",
}

// openSession is the transient bookkeeping for one open (not necessarily
// focused) window process. Never persisted; dropped the moment the window
// disappears from a snapshot.
type openSession struct {
	activity    *models.Activity
	accumulated time.Duration
	lastUpdate  time.Time
	lastFocus   time.Time
	focused     bool
	title       string
}

// manualSession maps a manually tracked activity to its open log rows.
type manualSession struct {
	activity    *models.Activity
	logID       int64
	descLogID   int64
	description string
	startedAt   time.Time
}

// Engine is the tracking state machine. One mutex guards all state: the
// poll loop and the request-facing operations both take it, so every tick
// and every manual operation observes a consistent snapshot.
type Engine struct {
	mu       sync.Mutex
	store    *store.Store
	sensor   sensor.Sensor
	icons    *icons.Cache
	presence *presence.Client
	log      zerolog.Logger

	tickInterval      time.Duration
	heartbeatInterval time.Duration
	startedAt         time.Time

	// now is injectable for tests.
	now func() time.Time

	current          *models.Activity
	currentLogID     int64
	currentDescLogID int64
	lastFocusedProc  string
	lastWindowTitle  string

	open        map[string]*openSession
	manual      map[int64]*manualSession
	manualOrder []int64
	ignored     map[string]struct{}
	pinned      *models.Activity

	lastHeartbeat time.Time
}

// New builds an engine. sns may be nil on platforms without window
// detection; the engine then runs manual sessions only.
func New(st *store.Store, sns sensor.Sensor, ic *icons.Cache, pc *presence.Client,
	tick, heartbeat time.Duration, log zerolog.Logger) *Engine {

	now := time.Now()
	e := &Engine{
		store:             st,
		sensor:            sns,
		icons:             ic,
		presence:          pc,
		log:               log,
		tickInterval:      tick,
		heartbeatInterval: heartbeat,
		startedAt:         now,
		now:               time.Now,
		open:              map[string]*openSession{},
		manual:            map[int64]*manualSession{},
		ignored:           map[string]struct{}{},
		lastHeartbeat:     now,
	}
	e.loadIgnored()
	return e
}

// Run drives the poll loop until ctx is cancelled, then flushes every open
// log so nothing is left dangling longer than necessary.
func (e *Engine) Run(ctx context.Context) {
	e.log.Info().
		Dur("tick", e.tickInterval).
		Dur("heartbeat", e.heartbeatInterval).
		Msg("tracking engine started")

	t := time.NewTicker(e.tickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			e.flush()
			e.log.Info().Msg("tracking engine stopped")
			return
		case <-t.C:
			e.safeTick()
		}
	}
}

// safeTick runs one tick behind a panic guard. No collaborator failure may
// terminate the poll loop.
func (e *Engine) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("tick panicked, continuing")
		}
	}()
	e.Tick()
}

// Tick executes one full reconciliation pass: snapshot, open-session
// bookkeeping, auto-tracking transitions, heartbeat, presence update.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.reconcile(e.observe(), now)
	e.heartbeat(now)
	e.publishPresence()
}

// observe queries the sensor. Any failure degrades to an empty snapshot
// for this tick only.
func (e *Engine) observe() *sensor.Snapshot {
	if e.sensor == nil {
		return &sensor.Snapshot{}
	}
	snap, err := e.sensor.Snapshot()
	if err != nil || snap == nil {
		if err != nil {
			e.log.Debug().Err(err).Msg("sensor snapshot failed, treating as empty")
		}
		return &sensor.Snapshot{}
	}
	return snap
}

func (e *Engine) reconcile(snap *sensor.Snapshot, now time.Time) {
	focused := snap.Focused
	if focused != nil {
		// Untitled windows (UWP transitions, games during startup) still
		// count as focused; fall back to the process name so the session
		// has a stable identity.
		if focused.Title == "" {
			f := *focused
			f.Title = f.ProcessName
			focused = &f
		}
		if e.filtered(focused) {
			focused = nil
		}
	}

	// The focused window belongs in the open set even when enumeration
	// missed it, otherwise the liveness guard below would close and
	// reopen its log every tick.
	windows := snap.Open
	if focused != nil {
		present := false
		for i := range windows {
			if windows[i].ProcessName == focused.ProcessName {
				present = true
				break
			}
		}
		if !present {
			windows = append(append([]sensor.WindowInfo(nil), windows...), *focused)
		}
	}

	// Open-session reconciliation: one session per process, created on
	// first sight, dropped the instant the window is gone. No grace
	// period and no persistence side effect.
	seen := map[string]bool{}
	for i := range windows {
		w := &windows[i]
		if e.filtered(w) || seen[w.ProcessName] {
			continue
		}
		seen[w.ProcessName] = true

		sess, ok := e.open[w.ProcessName]
		if !ok {
			act, err := e.store.GetOrCreateActivity(
				w.ProcessName, models.KindApp, w.Title, e.icons.Lookup(w.ProcessName))
			if err != nil {
				e.log.Warn().Err(err).Str("process", w.ProcessName).Msg("activity lookup failed")
				continue
			}
			sess = &openSession{activity: act, lastUpdate: now}
			e.open[w.ProcessName] = sess
		} else if !sess.activity.IconPath.Valid {
			// Icon may have been cached since the activity was created.
			if p := e.icons.Lookup(w.ProcessName); p != "" {
				if err := e.store.UpdateIcon(sess.activity.ID, p); err == nil {
					sess.activity.IconPath.String = p
					sess.activity.IconPath.Valid = true
				}
			}
		}
		sess.title = w.Title
	}
	for name := range e.open {
		if !seen[name] {
			delete(e.open, name)
		}
	}

	// Time accrual: credit the interval since the previous tick to
	// whatever was focused then, then recompute focus for this tick.
	focusedName := ""
	if focused != nil {
		focusedName = focused.ProcessName
	}
	for name, sess := range e.open {
		if sess.focused {
			sess.accumulated += now.Sub(sess.lastUpdate)
		}
		sess.focused = name == focusedName
		sess.lastUpdate = now
		if sess.focused {
			sess.lastFocus = now
		}
	}

	// Liveness guard: the tracked window vanished without a focus
	// change ever reaching us. Close its logs instead of leaving a
	// ghost open log behind.
	if e.current != nil {
		if _, ok := e.open[e.lastFocusedProc]; !ok {
			e.stopAuto()
		}
	}

	if focused == nil {
		if e.current != nil {
			e.stopAuto()
		}
		return
	}

	var act *models.Activity
	if sess, ok := e.open[focused.ProcessName]; ok {
		act = sess.activity
	} else {
		var err error
		act, err = e.store.GetOrCreateActivity(
			focused.ProcessName, models.KindApp, focused.Title, e.icons.Lookup(focused.ProcessName))
		if err != nil {
			e.log.Warn().Err(err).Str("process", focused.ProcessName).Msg("activity lookup failed")
			return
		}
	}

	// Manual tracking claims the activity outright: no auto log may be
	// open for it at the same time.
	if _, ok := e.manual[act.ID]; ok {
		if e.current != nil && e.current.ID == act.ID {
			e.stopAuto()
		}
		return
	}

	// Switch detection.
	if focused.ProcessName != e.lastFocusedProc {
		e.stopAuto()

		logID, err := e.store.StartLog(act.ID)
		if err != nil {
			e.storeErr(err, "start log")
		}
		descID, err := e.store.StartDescriptionLog(act.ID, focused.Title)
		if err != nil {
			e.storeErr(err, "start description log")
		}

		e.current = act
		e.currentLogID = logID
		e.currentDescLogID = descID
		e.lastFocusedProc = focused.ProcessName
		e.lastWindowTitle = focused.Title
		e.log.Debug().Str("activity", act.Name).Str("title", focused.Title).Msg("auto tracking started")
		return
	}

	// Same process, new title: only the description log rotates, the
	// activity log runs on uninterrupted.
	if focused.Title != e.lastWindowTitle {
		if e.currentDescLogID != 0 {
			if err := e.store.StopDescriptionLog(e.currentDescLogID); err != nil {
				e.storeErr(err, "close description log")
			}
		}
		descID, err := e.store.StartDescriptionLog(act.ID, focused.Title)
		if err != nil {
			e.storeErr(err, "start description log")
		}
		e.currentDescLogID = descID

		if act.Kind != models.KindApp {
			if err := e.store.UpdateDescription(act.ID, focused.Title); err != nil {
				e.storeErr(err, "update description")
			}
		}
		e.lastWindowTitle = focused.Title
	}
}

// heartbeat re-stamps end time and duration on every open log on a
// wall-clock cadence. This bounds crash loss to one heartbeat interval.
func (e *Engine) heartbeat(now time.Time) {
	if now.Sub(e.lastHeartbeat) < e.heartbeatInterval {
		return
	}
	e.lastHeartbeat = now

	if e.currentLogID != 0 {
		if err := e.store.StopLog(e.currentLogID); err != nil {
			e.storeErr(err, "heartbeat log")
		}
	}
	if e.currentDescLogID != 0 {
		if err := e.store.StopDescriptionLog(e.currentDescLogID); err != nil {
			e.storeErr(err, "heartbeat description log")
		}
	}
	for _, m := range e.manual {
		if err := e.store.StopLog(m.logID); err != nil {
			e.storeErr(err, "heartbeat manual log")
		}
		if m.descLogID != 0 {
			if err := e.store.StopDescriptionLog(m.descLogID); err != nil {
				e.storeErr(err, "heartbeat manual description log")
			}
		}
	}
}

// publishPresence resolves the broadcast target from current state and
// forwards the payload. Called with the engine lock held.
func (e *Engine) publishPresence() {
	enabled, err := e.store.BoolSetting(models.SettingDiscordEnabled, true)
	if err != nil {
		e.storeErr(err, "read broadcast setting")
		enabled = true
	}

	st := presence.State{
		Enabled:   enabled,
		Pinned:    e.pinned,
		Auto:      e.current,
		LiveTitle: e.lastWindowTitle,
		StartedAt: e.startedAt,
	}
	for _, id := range e.manualOrder {
		st.Manual = append(st.Manual, e.manual[id].activity)
	}
	for _, sess := range e.open {
		st.Open = append(st.Open, presence.OpenCandidate{
			Activity:  sess.activity,
			LastFocus: sess.lastFocus,
		})
	}

	target, _ := presence.Resolve(st)

	// An invalidated pin falls back for good, not just for this tick.
	if e.pinned != nil && (target == nil || target.ID != e.pinned.ID) {
		e.log.Debug().Str("activity", e.pinned.Name).Msg("dropping invalid presence pin")
		e.pinned = nil
	}

	// Visibility comes from the store, not the in-memory copy, so a
	// just-hidden activity disappears on the very next tick.
	visible := true
	if target != nil {
		fresh, err := e.store.Activity(target.ID)
		if err != nil {
			e.storeErr(err, "refresh activity visibility")
		} else if fresh != nil {
			visible = fresh.BroadcastVisible
			target = fresh
		}
	}

	e.presence.Publish(presence.BuildPayload(st, target, visible))
}

// flush closes every open log on shutdown.
func (e *Engine) flush() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopAuto()
	for id, m := range e.manual {
		if m.descLogID != 0 {
			if err := e.store.StopDescriptionLog(m.descLogID); err != nil {
				e.storeErr(err, "flush manual description log")
			}
		}
		if err := e.store.StopLog(m.logID); err != nil {
			e.storeErr(err, "flush manual log")
		}
		delete(e.manual, id)
	}
	e.manualOrder = nil
	e.presence.Publish(presence.Payload{Clear: true})
}

// stopAuto closes the current auto log and description log and clears the
// focus bookkeeping. Safe to call when nothing is tracked.
func (e *Engine) stopAuto() {
	if e.currentDescLogID != 0 {
		if err := e.store.StopDescriptionLog(e.currentDescLogID); err != nil {
			e.storeErr(err, "close description log")
		}
	}
	if e.currentLogID != 0 {
		if err := e.store.StopLog(e.currentLogID); err != nil {
			e.storeErr(err, "close log")
		}
		if e.current != nil {
			e.log.Debug().Str("activity", e.current.Name).Msg("auto tracking stopped")
		}
	}
	e.current = nil
	e.currentLogID = 0
	e.currentDescLogID = 0
	e.lastFocusedProc = ""
	e.lastWindowTitle = ""
}

// filtered reports whether a window must be excluded from tracking: our
// own windows and explicitly ignored processes.
func (e *Engine) filtered(w *sensor.WindowInfo) bool {
	if strings.Contains(w.Title, selfWindowMarker) {
		return true
	}
	_, ignored := e.ignored[w.ProcessName]
	return ignored
}

// storeErr logs a store failure. In-memory state always advances past a
// failed write; the next heartbeat re-persists what it can.
func (e *Engine) storeErr(err error, op string) {
	e.log.Warn().Err(err).Str("op", op).Msg("store write failed")
}
