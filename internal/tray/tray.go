// Package tray implements the system tray icon and menu for the daemon.
package tray

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/getlantern/systray"
)

// DaemonState provides read-only access to daemon state for the tray.
type DaemonState interface {
	Port() int
	TrackingLine() string
	ManualCount() int
	RequestShutdown()
}

var (
	state   DaemonState
	onStart func()
	onExit  func()

	portItem     *systray.MenuItem
	trackingItem *systray.MenuItem
	openAPIItem  *systray.MenuItem
	quitItem     *systray.MenuItem
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called when the tray is ready (launch services here).
// onExitFn is called when the tray exits (cleanup here).
func Run(s DaemonState, onStartFn, onExitFn func()) {
	state = s
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTitle("Gainhour")
	systray.SetTooltip("Gainhour - idle")

	header := systray.AddMenuItem("Gainhour Daemon", "")
	header.Disable()

	portItem = systray.AddMenuItem("Starting...", "")
	portItem.Disable()

	trackingItem = systray.AddMenuItem("Idle", "")
	trackingItem.Disable()

	systray.AddSeparator()

	openAPIItem = systray.AddMenuItem("Open Web API", "Open the local control API in a browser")
	quitItem = systray.AddMenuItem("Quit", "Shut down the Gainhour daemon")

	if onStart != nil {
		onStart()
	}

	if state != nil {
		portItem.SetTitle(fmt.Sprintf("Running on port: %d", state.Port()))
	}

	go handleClicks()
	go refreshLoop()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-openAPIItem.ClickedCh:
			if state != nil {
				openBrowser(fmt.Sprintf("http://127.0.0.1:%d/api/status", state.Port()))
			}
		case <-quitItem.ClickedCh:
			if state != nil {
				state.RequestShutdown()
			}
		}
	}
}

// refreshLoop keeps the tracking line and tooltip in sync with the engine.
func refreshLoop() {
	t := time.NewTicker(3 * time.Second)
	defer t.Stop()

	for range t.C {
		if state == nil {
			continue
		}
		line := state.TrackingLine()
		trackingItem.SetTitle(line)
		systray.SetTooltip(formatTooltip(line, state.ManualCount()))
	}
}

func formatTooltip(line string, manual int) string {
	if manual > 0 {
		return fmt.Sprintf("Gainhour - %s, %d manual", line, manual)
	}
	return fmt.Sprintf("Gainhour - %s", line)
}

func openBrowser(url string) {
	switch runtime.GOOS {
	case "windows":
		_ = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		_ = exec.Command("open", url).Start()
	default:
		_ = exec.Command("xdg-open", url).Start()
	}
}
