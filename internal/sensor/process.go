package sensor

import (
	"github.com/shirou/gopsutil/process"
)

// ProcessSensor is the degraded cross-platform mode: it reports watched
// processes as open windows but has no focus information, so only
// open-session bookkeeping and presence fallback work with it. The watch
// list keeps it from surfacing every process on the machine.
type ProcessSensor struct {
	watch map[string]bool
}

// NewProcessSensor watches the given process names.
func NewProcessSensor(watch []string) *ProcessSensor {
	m := make(map[string]bool, len(watch))
	for _, name := range watch {
		m[name] = true
	}
	return &ProcessSensor{watch: m}
}

func (p *ProcessSensor) Snapshot() (*Snapshot, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	seen := map[string]bool{}
	for _, proc := range procs {
		name, err := proc.Name()
		if err != nil || !p.watch[name] || seen[name] {
			continue
		}
		seen[name] = true
		exe, _ := proc.Exe()
		snap.Open = append(snap.Open, WindowInfo{
			ProcessName:    name,
			Title:          name,
			ExecutablePath: exe,
		})
	}
	return snap, nil
}
