// Package window observes which window currently has input focus.
package window

// MonitorUnknown marks a sample whose monitor could not be determined.
const MonitorUnknown = -1

// FocusSample is one observation of the focused window: the monitor it
// sits on and its title text. Title is empty when no window has focus,
// which fails every pattern downstream instead of erroring.
type FocusSample struct {
	Monitor int    `json:"monitor"`
	Title   string `json:"title"`
}

// Source produces focus samples on demand. Implementations are polled by
// the switcher engine, never pushed.
type Source interface {
	// Name identifies the backend (e.g. "x11").
	Name() string

	// Sample returns the focus state for each monitored display. A
	// transient query failure is returned as an error; the caller skips
	// that tick and polls again.
	Sample() ([]FocusSample, error)

	// Close releases the backend's resources.
	Close() error
}
