//go:build windows

package sensor

import (
	"syscall"
	"unsafe"

	"github.com/shirou/gopsutil/process"
)

var (
	user32                     = syscall.NewLazyDLL("user32.dll")
	procGetForegroundWindow    = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW         = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW   = user32.NewProc("GetWindowTextLengthW")
	procGetWindowThreadProcess = user32.NewProc("GetWindowThreadProcessId")
	procEnumWindows            = user32.NewProc("EnumWindows")
	procIsWindowVisible        = user32.NewProc("IsWindowVisible")
)

type windowsSensor struct{}

// New returns the native Win32 window sensor.
func New() (Sensor, error) {
	return &windowsSensor{}, nil
}

func (windowsSensor) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{}

	// Process metadata is looked up once per pid per snapshot; several
	// windows usually share one owner.
	cache := map[uint32]*WindowInfo{}

	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if v, _, _ := procIsWindowVisible.Call(hwnd); v == 0 {
			return 1
		}
		if n, _, _ := procGetWindowTextLengthW.Call(hwnd); n == 0 {
			return 1
		}
		if w := describeWindow(hwnd, cache); w != nil {
			snap.Open = append(snap.Open, *w)
		}
		return 1
	})
	procEnumWindows.Call(cb, 0)

	if hwnd, _, _ := procGetForegroundWindow.Call(); hwnd != 0 {
		snap.Focused = describeWindow(hwnd, cache)
	}

	// Enumeration skips untitled windows, but the foreground window may
	// be untitled (UWP transitions, games during startup). Give it the
	// process name as a title and make sure its process is listed as
	// open, so readers see a consistent snapshot.
	if f := snap.Focused; f != nil {
		if f.Title == "" {
			f.Title = f.ProcessName
		}
		present := false
		for i := range snap.Open {
			if snap.Open[i].ProcessName == f.ProcessName {
				present = true
				break
			}
		}
		if !present {
			snap.Open = append(snap.Open, *f)
		}
	}
	return snap, nil
}

func describeWindow(hwnd uintptr, cache map[uint32]*WindowInfo) *WindowInfo {
	var pid uint32
	procGetWindowThreadProcess.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return nil
	}

	base, ok := cache[pid]
	if !ok {
		// Owner may exit between enumeration and lookup; skip it.
		proc, err := process.NewProcess(int32(pid))
		if err != nil {
			cache[pid] = nil
			return nil
		}
		name, err := proc.Name()
		if err != nil {
			cache[pid] = nil
			return nil
		}
		exe, _ := proc.Exe()
		base = &WindowInfo{ProcessName: name, ExecutablePath: exe}
		cache[pid] = base
	}
	if base == nil {
		return nil
	}

	buf := make([]uint16, 512)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return &WindowInfo{
		ProcessName:    base.ProcessName,
		Title:          syscall.UTF16ToString(buf[:n]),
		ExecutablePath: base.ExecutablePath,
	}
}
