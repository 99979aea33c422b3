package pulsedna

import "github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// ReadingSink receives every reading a Monitor emits. Publish is called
// with the monitor's lock held and must not call back into the Monitor.
type ReadingSink interface {
	Publish(sessionID string, r model.Reading) error
}

// Aliases so callers of the top-level package rarely need model directly.
type (
	Reading = model.Reading
	Quality = model.Quality
	Rect    = model.Rect
)
