//go:build !windows

package sensor

// New returns ErrUnsupported. The daemon still runs on these platforms
// for manual sessions; window tracking needs the native sensor.
func New() (Sensor, error) {
	return nil, ErrUnsupported
}
