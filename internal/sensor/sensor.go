// Package sensor reads the open and focused windows from the operating
// system. It is a passive observer: one snapshot per call, no caching, no
// interpretation of what the windows mean.
package sensor

import "errors"

// ErrUnsupported is returned by New on platforms without a window
// enumeration implementation.
var ErrUnsupported = errors.New("sensor: window detection not supported on this platform")

// WindowInfo describes one top-level window at the moment of the snapshot.
type WindowInfo struct {
	// ProcessName is the executable name owning the window, e.g.
	// "firefox.exe".
	ProcessName string
	// Title is the window title bar text. May be empty.
	Title string
	// ExecutablePath is the full path of the owning binary, when it
	// could be resolved.
	ExecutablePath string
}

// Snapshot is one observation of the desktop.
type Snapshot struct {
	// Focused is the window holding input focus, or nil when nothing
	// has focus (desktop, lock screen, secure prompts).
	Focused *WindowInfo
	// Open lists all visible top-level windows, focused one included.
	Open []WindowInfo
}

// Sensor produces desktop snapshots.
type Sensor interface {
	Snapshot() (*Snapshot, error)
}
