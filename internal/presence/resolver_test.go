package presence

import (
	"testing"
	"time"

	"github.com/gainhour/gainhour/internal/models"
)

func act(id int64, name string, kind models.ActivityKind) *models.Activity {
	return &models.Activity{ID: id, Name: name, Kind: kind, BroadcastVisible: true}
}

var (
	anchor = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	writer  = act(1, "writer.exe", models.KindApp)
	browser = act(2, "browser.exe", models.KindApp)
	reading = act(3, "Reading", models.KindIRL)
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		state      State
		wantID     int64 // 0 means no target
		wantSource Source
	}{
		{
			name:       "nothing running yields no target",
			state:      State{Enabled: true, StartedAt: anchor},
			wantSource: SourceNone,
		},
		{
			name:       "auto activity wins by default",
			state:      State{Enabled: true, Auto: writer, StartedAt: anchor},
			wantID:     1,
			wantSource: SourceAuto,
		},
		{
			name: "auto beats open and manual",
			state: State{
				Enabled: true,
				Auto:    writer,
				Manual:  []*models.Activity{reading},
				Open:    []OpenCandidate{{Activity: browser, LastFocus: anchor}},
			},
			wantID:     1,
			wantSource: SourceAuto,
		},
		{
			name: "most recently focused open session wins",
			state: State{
				Enabled: true,
				Open: []OpenCandidate{
					{Activity: writer, LastFocus: anchor},
					{Activity: browser, LastFocus: anchor.Add(time.Minute)},
				},
			},
			wantID:     2,
			wantSource: SourceOpen,
		},
		{
			name: "first registered manual session wins",
			state: State{
				Enabled: true,
				Manual:  []*models.Activity{reading, act(4, "Cooking", models.KindIRL)},
			},
			wantID:     3,
			wantSource: SourceManual,
		},
		{
			name: "pin valid while auto tracked",
			state: State{
				Enabled: true,
				Pinned:  writer,
				Auto:    writer,
			},
			wantID:     1,
			wantSource: SourcePin,
		},
		{
			name: "pin valid while manual session open",
			state: State{
				Enabled: true,
				Pinned:  reading,
				Auto:    writer,
				Manual:  []*models.Activity{reading},
			},
			wantID:     3,
			wantSource: SourcePin,
		},
		{
			name: "app pin valid while window still open",
			state: State{
				Enabled: true,
				Pinned:  browser,
				Auto:    writer,
				Open:    []OpenCandidate{{Activity: browser, LastFocus: anchor}},
			},
			wantID:     2,
			wantSource: SourcePin,
		},
		{
			name: "irl pin does not validate against open windows",
			state: State{
				Enabled: true,
				Pinned:  reading,
				Open:    []OpenCandidate{{Activity: act(3, "Reading", models.KindApp), LastFocus: anchor}},
			},
			wantID:     3,
			wantSource: SourceOpen,
		},
		{
			name: "invalid pin falls back to auto",
			state: State{
				Enabled: true,
				Pinned:  reading,
				Auto:    writer,
			},
			wantID:     1,
			wantSource: SourceAuto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := Resolve(tt.state)
			if source != tt.wantSource {
				t.Errorf("source = %v, want %v", source, tt.wantSource)
			}
			var gotID int64
			if got != nil {
				gotID = got.ID
			}
			if gotID != tt.wantID {
				t.Errorf("target id = %d, want %d", gotID, tt.wantID)
			}
		})
	}
}

// An invalid pin must produce exactly what the unpinned state produces.
func TestInvalidPinMatchesUnpinnedOutput(t *testing.T) {
	pinned := State{
		Enabled: true,
		Pinned:  reading, // no session anywhere: invalid
		Auto:    writer,
		Open:    []OpenCandidate{{Activity: browser, LastFocus: anchor}},
	}
	unpinned := pinned
	unpinned.Pinned = nil

	gotP, srcP := Resolve(pinned)
	gotU, srcU := Resolve(unpinned)
	if gotP.ID != gotU.ID || srcP != srcU {
		t.Errorf("pinned resolve (%d, %v) != unpinned resolve (%d, %v)",
			gotP.ID, srcP, gotU.ID, srcU)
	}
}

func TestBuildPayload(t *testing.T) {
	base := State{Enabled: true, StartedAt: anchor}

	t.Run("disabled clears", func(t *testing.T) {
		p := BuildPayload(State{Enabled: false}, writer, true)
		if !p.Clear {
			t.Fatal("expected clear payload")
		}
	})

	t.Run("no target idles with anchor", func(t *testing.T) {
		p := BuildPayload(base, nil, true)
		if !p.Idle || p.Details != "Idling" {
			t.Fatalf("unexpected payload %+v", p)
		}
		if !p.Start.Equal(anchor) {
			t.Errorf("start = %v, want anchor %v", p.Start, anchor)
		}
	})

	t.Run("hidden target idles but keeps anchor", func(t *testing.T) {
		p := BuildPayload(base, writer, false)
		if !p.Idle {
			t.Fatal("expected idle payload for hidden target")
		}
		if !p.Start.Equal(anchor) {
			t.Errorf("start = %v, want anchor %v", p.Start, anchor)
		}
	})

	t.Run("app target uses Using prefix and live title", func(t *testing.T) {
		s := base
		s.Auto = writer
		s.LiveTitle = "draft.txt"
		p := BuildPayload(s, writer, true)
		if p.Details != "Using writer.exe" {
			t.Errorf("details = %q", p.Details)
		}
		if p.State != "draft.txt" {
			t.Errorf("state = %q", p.State)
		}
	})

	t.Run("irl target uses bare name and description", func(t *testing.T) {
		withDesc := *reading
		withDesc.Description.String = "a good book"
		withDesc.Description.Valid = true
		p := BuildPayload(base, &withDesc, true)
		if p.Details != "Reading" {
			t.Errorf("details = %q", p.Details)
		}
		if p.State != "a good book" {
			t.Errorf("state = %q", p.State)
		}
	})

	t.Run("target without description falls back to Active", func(t *testing.T) {
		p := BuildPayload(base, reading, true)
		if p.State != "Active" {
			t.Errorf("state = %q", p.State)
		}
	})
}
