package tracker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gainhour/gainhour/internal/icons"
	"github.com/gainhour/gainhour/internal/models"
	"github.com/gainhour/gainhour/internal/presence"
	"github.com/gainhour/gainhour/internal/sensor"
	"github.com/gainhour/gainhour/internal/store"
)

// fakeSensor replays whatever snapshot the test sets.
type fakeSensor struct {
	snap *sensor.Snapshot
}

func (f *fakeSensor) Snapshot() (*sensor.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeSensor) focus(proc, title string, alsoOpen ...sensor.WindowInfo) {
	w := sensor.WindowInfo{ProcessName: proc, Title: title}
	f.snap = &sensor.Snapshot{Focused: &w, Open: append([]sensor.WindowInfo{w}, alsoOpen...)}
}

func (f *fakeSensor) noFocus(open ...sensor.WindowInfo) {
	f.snap = &sensor.Snapshot{Open: open}
}

// fakeBroadcaster records published payloads.
type fakeBroadcaster struct {
	updates []presence.Payload
	cleared int
}

func (f *fakeBroadcaster) Connect() error { return nil }
func (f *fakeBroadcaster) Update(details, state string, start time.Time) error {
	f.updates = append(f.updates, presence.Payload{Details: details, State: state, Start: start})
	return nil
}
func (f *fakeBroadcaster) Clear() error { f.cleared++; return nil }
func (f *fakeBroadcaster) Close()       {}

type fixture struct {
	engine *Engine
	store  *store.Store
	sensor *fakeSensor
	cast   *fakeBroadcaster
	clock  *time.Time
}

func (fx *fixture) advance(d time.Duration) {
	*fx.clock = fx.clock.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	clock := &now
	st.SetClock(func() time.Time { return *clock })

	ic, err := icons.NewCache(filepath.Join(t.TempDir(), "icons"))
	require.NoError(t, err)

	fs := &fakeSensor{snap: &sensor.Snapshot{}}
	cast := &fakeBroadcaster{}
	pc := presence.NewClient(cast, zerolog.Nop())
	require.NoError(t, pc.Reconnect())

	e := New(st, fs, ic, pc, time.Second, 30*time.Second, zerolog.Nop())
	e.now = func() time.Time { return *clock }
	e.startedAt = now
	e.lastHeartbeat = now

	return &fixture{engine: e, store: st, sensor: fs, cast: cast, clock: clock}
}

func TestAutoTrackingStartAndStop(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()

	require.NotNil(t, fx.engine.current)
	assert.Equal(t, "writer.exe", fx.engine.current.Name)
	logID := fx.engine.currentLogID
	descID := fx.engine.currentDescLogID
	require.NotZero(t, logID)
	require.NotZero(t, descID)

	fx.advance(10 * time.Second)
	fx.sensor.noFocus()
	fx.engine.Tick()

	assert.Nil(t, fx.engine.current)

	l, err := fx.store.Log(logID)
	require.NoError(t, err)
	require.True(t, l.EndTime.Valid)
	assert.Equal(t, int64(10), l.Duration)

	d, err := fx.store.DescriptionLog(descID)
	require.NoError(t, err)
	assert.Equal(t, "draft.txt", d.Description)
	assert.Equal(t, int64(10), d.Duration)
}

func TestSwitchClosesPreviousAutoLog(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	writerLog := fx.engine.currentLogID
	writerID := fx.engine.current.ID

	fx.advance(5 * time.Second)
	fx.sensor.focus("notepad.exe", "notes")
	fx.engine.Tick()

	assert.Equal(t, "notepad.exe", fx.engine.current.Name)
	assert.NotEqual(t, writerLog, fx.engine.currentLogID)

	// At most one open auto log: the writer log is closed.
	l, err := fx.store.Log(writerLog)
	require.NoError(t, err)
	assert.True(t, l.EndTime.Valid)
	assert.Equal(t, int64(5), l.Duration)

	n, err := fx.store.OpenLogCount(writerID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = fx.store.OpenLogCount(fx.engine.current.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTitleChangeRotatesOnlyDescriptionLog(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "chapter one")
	fx.engine.Tick()
	logID := fx.engine.currentLogID
	firstDesc := fx.engine.currentDescLogID

	fx.advance(5 * time.Second)
	fx.sensor.focus("writer.exe", "chapter two")
	fx.engine.Tick()

	// Activity log runs on uninterrupted.
	assert.Equal(t, logID, fx.engine.currentLogID)
	l, err := fx.store.Log(logID)
	require.NoError(t, err)
	assert.True(t, l.Open())

	// Description log rotated at the title change.
	d, err := fx.store.DescriptionLog(firstDesc)
	require.NoError(t, err)
	assert.True(t, d.EndTime.Valid)
	assert.Equal(t, int64(5), d.Duration)

	cur, err := fx.store.DescriptionLog(fx.engine.currentDescLogID)
	require.NoError(t, err)
	assert.Equal(t, "chapter two", cur.Description)
	assert.True(t, cur.Open())

	// App-kind activities keep description logs only.
	act, err := fx.store.Activity(fx.engine.current.ID)
	require.NoError(t, err)
	assert.Empty(t, act.DescriptionText())
}

func TestLivenessGuardClosesGhostLog(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	logID := fx.engine.currentLogID

	// Window vanishes entirely between ticks, focus included.
	fx.advance(3 * time.Second)
	fx.sensor.noFocus()
	fx.engine.Tick()

	assert.Nil(t, fx.engine.current)
	assert.Empty(t, fx.engine.open)

	l, err := fx.store.Log(logID)
	require.NoError(t, err)
	assert.True(t, l.EndTime.Valid)
}

func TestUntitledFocusedWindowKeepsOneLog(t *testing.T) {
	fx := newFixture(t)

	// Untitled focused window absent from the enumerated open set, as
	// during UWP transitions or game startup. It must behave like any
	// other focused window, not get churned through the liveness guard.
	fx.sensor.snap = &sensor.Snapshot{Focused: &sensor.WindowInfo{ProcessName: "game.exe"}}
	fx.engine.Tick()
	logID := fx.engine.currentLogID
	require.NotZero(t, logID)

	for i := 0; i < 4; i++ {
		fx.advance(time.Second)
		fx.engine.Tick()
	}

	// One continuous log across every tick.
	assert.Equal(t, logID, fx.engine.currentLogID)
	require.NotNil(t, fx.engine.current)
	n, err := fx.store.OpenLogCount(fx.engine.current.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The description falls back to the process name.
	d, err := fx.store.DescriptionLog(fx.engine.currentDescLogID)
	require.NoError(t, err)
	assert.Equal(t, "game.exe", d.Description)
	assert.True(t, d.Open())

	fx.advance(time.Second)
	fx.sensor.noFocus()
	fx.engine.Tick()
	l, err := fx.store.Log(logID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), l.Duration)
}

func TestManualWinsOverAuto(t *testing.T) {
	fx := newFixture(t)

	// Auto tracking first, manual start displaces it.
	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	autoLog := fx.engine.currentLogID
	act := fx.engine.current

	fx.advance(2 * time.Second)
	_, err := fx.engine.StartManual("writer.exe", models.KindApp, "")
	require.NoError(t, err)

	assert.Nil(t, fx.engine.current)
	l, err := fx.store.Log(autoLog)
	require.NoError(t, err)
	assert.True(t, l.EndTime.Valid)

	// Focus events keep arriving; the manual session holds the claim.
	fx.advance(time.Second)
	fx.engine.Tick()
	assert.Nil(t, fx.engine.current)

	n, err := fx.store.OpenLogCount(act.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the manual log may be open")
}

func TestManualSessionsRunConcurrently(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.engine.StartManual("Reading", models.KindIRL, "a book")
	require.NoError(t, err)
	_, err = fx.engine.StartManual("Cooking", models.KindIRL, "")
	require.NoError(t, err)

	// And auto tracking of a different activity keeps working.
	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	require.NotNil(t, fx.engine.current)

	st := fx.engine.Status()
	assert.Len(t, st.Manual, 2)
	assert.Equal(t, "Reading", st.Manual[0].Name)
	assert.Equal(t, "a book", st.Manual[0].Description)
	assert.Equal(t, "Cooking", st.Manual[1].Name)
	assert.Equal(t, defaultManualDescription, st.Manual[1].Description)
}

func TestStartManualTwiceIsNoop(t *testing.T) {
	fx := newFixture(t)

	a, err := fx.engine.StartManual("Reading", models.KindIRL, "")
	require.NoError(t, err)
	b, err := fx.engine.StartManual("Reading", models.KindIRL, "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	n, err := fx.store.OpenLogCount(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStopManual(t *testing.T) {
	fx := newFixture(t)

	a, err := fx.engine.StartManual("Reading", models.KindIRL, "")
	require.NoError(t, err)

	fx.advance(7 * time.Second)
	require.NoError(t, fx.engine.StopManual(a.ID))

	n, err := fx.store.OpenLogCount(a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	total, err := fx.store.TotalDuration(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)

	assert.ErrorIs(t, fx.engine.StopManual(a.ID), ErrNoManualSession)
}

func TestUpdateManualDescriptionRotatesLog(t *testing.T) {
	fx := newFixture(t)

	a, err := fx.engine.StartManual("Reading", models.KindIRL, "chapter 1")
	require.NoError(t, err)
	firstDesc := fx.engine.manual[a.ID].descLogID
	logID := fx.engine.manual[a.ID].logID

	fx.advance(4 * time.Second)
	require.NoError(t, fx.engine.UpdateManualDescription(a.ID, "chapter 2"))

	d, err := fx.store.DescriptionLog(firstDesc)
	require.NoError(t, err)
	assert.True(t, d.EndTime.Valid)
	assert.Equal(t, int64(4), d.Duration)

	// The activity log itself is untouched.
	l, err := fx.store.Log(logID)
	require.NoError(t, err)
	assert.True(t, l.Open())
	assert.Equal(t, logID, fx.engine.manual[a.ID].logID)

	act, err := fx.store.Activity(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "chapter 2", act.DescriptionText())
}

func TestIgnoreForceStopsAutoSession(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	logID := fx.engine.currentLogID

	fx.engine.SetIgnored("writer.exe", true)

	assert.Nil(t, fx.engine.current)
	l, err := fx.store.Log(logID)
	require.NoError(t, err)
	assert.True(t, l.EndTime.Valid)

	// Still focused, but filtered now.
	fx.engine.Tick()
	assert.Nil(t, fx.engine.current)

	fx.engine.SetIgnored("writer.exe", false)
	fx.engine.Tick()
	require.NotNil(t, fx.engine.current)
	assert.Equal(t, "writer.exe", fx.engine.current.Name)
}

func TestManualStartUnignores(t *testing.T) {
	fx := newFixture(t)

	fx.engine.SetIgnored("Reading", true)
	_, err := fx.engine.StartManual("Reading", models.KindIRL, "")
	require.NoError(t, err)

	_, still := fx.engine.ignored["Reading"]
	assert.False(t, still)
}

func TestSelfWindowIsNeverTracked(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("gainhour.exe", "Gainhour - statistics")
	fx.engine.Tick()

	assert.Nil(t, fx.engine.current)
	assert.Empty(t, fx.engine.open)
}

func TestHeartbeatRestampsOpenLogs(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	autoLog := fx.engine.currentLogID

	m, err := fx.engine.StartManual("Reading", models.KindIRL, "")
	require.NoError(t, err)
	manualLog := fx.engine.manual[m.ID].logID

	fx.advance(30 * time.Second)
	fx.engine.Tick()

	for _, id := range []int64{autoLog, manualLog} {
		l, err := fx.store.Log(id)
		require.NoError(t, err)
		require.True(t, l.EndTime.Valid, "heartbeat stamps an end time")
		assert.Equal(t, fx.clock.Unix(), l.EndTime.Int64)
		assert.Equal(t, l.EndTime.Int64-l.StartTime, l.Duration)
	}

	// Tracking continues; the close simply lands later with a larger
	// duration.
	fx.advance(10 * time.Second)
	fx.sensor.noFocus()
	fx.engine.Tick()
	l, err := fx.store.Log(autoLog)
	require.NoError(t, err)
	assert.Equal(t, int64(40), l.Duration)
}

func TestOpenSessionAccrual(t *testing.T) {
	fx := newFixture(t)

	notepad := sensor.WindowInfo{ProcessName: "notepad.exe", Title: "notes"}
	fx.sensor.focus("writer.exe", "draft.txt", notepad)
	fx.engine.Tick()

	fx.advance(10 * time.Second)
	fx.engine.Tick()

	// Focused time accrues to writer only.
	assert.Equal(t, 10*time.Second, fx.engine.open["writer.exe"].accumulated)
	assert.Zero(t, fx.engine.open["notepad.exe"].accumulated)

	// Window disappears: session gone the same tick, no grace period.
	fx.advance(time.Second)
	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	_, ok := fx.engine.open["notepad.exe"]
	assert.False(t, ok)
}

func TestFlushClosesEverything(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	auto := fx.engine.current
	m, err := fx.engine.StartManual("Reading", models.KindIRL, "")
	require.NoError(t, err)

	fx.advance(3 * time.Second)
	fx.engine.flush()

	for _, id := range []int64{auto.ID, m.ID} {
		n, err := fx.store.OpenLogCount(id)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	assert.Empty(t, fx.engine.manual)
	assert.Nil(t, fx.engine.current)
}

func TestPresencePublishedEachTick(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()

	require.NotEmpty(t, fx.cast.updates)
	last := fx.cast.updates[len(fx.cast.updates)-1]
	assert.Equal(t, "Using writer.exe", last.Details)
	assert.Equal(t, "draft.txt", last.State)
	assert.Equal(t, fx.engine.startedAt, last.Start)
}

func TestPresenceDisabledClears(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.store.SetSetting(models.SettingDiscordEnabled, models.BoolFalse))
	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()

	assert.NotZero(t, fx.cast.cleared)
	assert.Empty(t, fx.cast.updates)
}

func TestInvalidPinFallsBack(t *testing.T) {
	fx := newFixture(t)

	// B exists but has no session of any kind; pinning it must fall
	// back to the auto activity A.
	b, err := fx.store.GetOrCreateActivity("Cooking", models.KindIRL, "", "")
	require.NoError(t, err)
	require.NoError(t, fx.engine.Pin(b.ID))

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()

	last := fx.cast.updates[len(fx.cast.updates)-1]
	assert.Equal(t, "Using writer.exe", last.Details)
	// The pin is dropped for good, not re-evaluated every tick.
	assert.Nil(t, fx.engine.pinned)
}

func TestHiddenActivityBroadcastsIdleWithAnchor(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()

	require.NoError(t, fx.store.UpdateVisibility(fx.engine.current.ID, false))
	fx.advance(time.Second)
	fx.engine.Tick()

	last := fx.cast.updates[len(fx.cast.updates)-1]
	assert.Equal(t, "Idling", last.Details)
	assert.Equal(t, fx.engine.startedAt, last.Start, "elapsed anchor survives hiding")
}

func TestSensorFailureIsEmptyTick(t *testing.T) {
	fx := newFixture(t)

	fx.sensor.focus("writer.exe", "draft.txt")
	fx.engine.Tick()
	logID := fx.engine.currentLogID

	fx.advance(time.Second)
	fx.sensor.snap = nil
	fx.engine.Tick()

	// Treated exactly like "nothing open, no focus".
	assert.Nil(t, fx.engine.current)
	l, err := fx.store.Log(logID)
	require.NoError(t, err)
	assert.True(t, l.EndTime.Valid)
}
