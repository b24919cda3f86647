// Package presence selects which activity to broadcast as the user's
// status and formats the broadcast payload. Target selection is a pure
// function of engine state so it can be tested without a connection.
package presence

import (
	"fmt"
	"time"

	"github.com/gainhour/gainhour/internal/models"
)

// Source records which rule chose the target.
type Source int

const (
	// SourceNone means no target: nothing open, nothing manual.
	SourceNone Source = iota
	// SourcePin is an explicit user pin that passed validation.
	SourcePin
	// SourceAuto is the focus-tracked activity.
	SourceAuto
	// SourceOpen is the most recently focused open window.
	SourceOpen
	// SourceManual is the first-registered manual session.
	SourceManual
)

// OpenCandidate is an open-window session offered to the resolver.
type OpenCandidate struct {
	Activity  *models.Activity
	LastFocus time.Time
}

// State is everything the resolver looks at for one decision.
type State struct {
	// Enabled is the global broadcast setting.
	Enabled bool
	// Pinned is the user-pinned activity, if any.
	Pinned *models.Activity
	// Auto is the focus-tracked activity, if any.
	Auto *models.Activity
	// LiveTitle is the focused window's current title.
	LiveTitle string
	// Manual lists activities with open manual sessions in registration
	// order.
	Manual []*models.Activity
	// Open lists open-window sessions.
	Open []OpenCandidate
	// StartedAt anchors the displayed elapsed time. It is the daemon's
	// start time and never changes while the process lives.
	StartedAt time.Time
}

// Resolve picks the broadcast target. A nil activity with SourceNone means
// the idle placeholder should be shown.
//
// An invalid pin falls through to the unpinned rules, so the output is
// exactly what an unpinned state would produce.
func Resolve(s State) (*models.Activity, Source) {
	if s.Pinned != nil && pinValid(s) {
		return s.Pinned, SourcePin
	}

	if s.Auto != nil {
		return s.Auto, SourceAuto
	}

	if len(s.Open) > 0 {
		best := s.Open[0]
		for _, c := range s.Open[1:] {
			if c.LastFocus.After(best.LastFocus) {
				best = c
			}
		}
		return best.Activity, SourceOpen
	}

	if len(s.Manual) > 0 {
		return s.Manual[0], SourceManual
	}

	return nil, SourceNone
}

// pinValid reports whether the pinned activity is still live: currently
// auto-tracked, manually tracked, or (app kind only) still has an open
// window.
func pinValid(s State) bool {
	if s.Auto != nil && s.Auto.ID == s.Pinned.ID {
		return true
	}
	for _, a := range s.Manual {
		if a.ID == s.Pinned.ID {
			return true
		}
	}
	if s.Pinned.Kind == models.KindApp {
		for _, c := range s.Open {
			if c.Activity.ID == s.Pinned.ID {
				return true
			}
		}
	}
	return false
}

// Payload is one fully formatted broadcast update.
type Payload struct {
	// Clear means the status should be removed entirely.
	Clear bool
	// Idle means the generic placeholder is shown.
	Idle    bool
	Details string
	State   string
	Start   time.Time
}

// BuildPayload formats the broadcast for a resolved target. visible is the
// target's broadcast-visible flag as freshly read from the store. A hidden
// target yields the idle payload with the original start anchor intact, so
// the elapsed counter keeps running without exposing the activity.
func BuildPayload(s State, target *models.Activity, visible bool) Payload {
	if !s.Enabled {
		return Payload{Clear: true}
	}
	if target == nil || !visible {
		return Payload{Idle: true, Details: "Idling", Start: s.StartedAt}
	}

	details := target.Name
	if target.Kind == models.KindApp {
		details = fmt.Sprintf("Using %s", target.Name)
	}

	state := "Active"
	if s.Auto != nil && s.Auto.ID == target.ID && s.LiveTitle != "" {
		state = s.LiveTitle
	} else if d := target.DescriptionText(); d != "" {
		state = d
	}

	return Payload{Details: details, State: state, Start: s.StartedAt}
}
