package registry

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownWindow is returned by ParseWindow for unrecognized labels.
var ErrUnknownWindow = errors.New("unknown time window")

// Window is a relative time range ending now.
type Window struct {
	Label    string
	Duration time.Duration
}

// DefaultWindow is the one-hour window query endpoints fall back to when
// a label does not parse.
var DefaultWindow = Window{Label: "last_1h", Duration: time.Hour}

var windows = map[string]time.Duration{
	"last_15m": 15 * time.Minute,
	"last_1h":  time.Hour,
	"last_24h": 24 * time.Hour,
	"last_7d":  7 * 24 * time.Hour,
}

// ParseWindow resolves a time-range label. Unrecognized labels are an
// explicit error; callers on the query path map it to DefaultWindow.
func ParseWindow(label string) (Window, error) {
	d, ok := windows[label]
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownWindow, label)
	}
	return Window{Label: label, Duration: d}, nil
}

// WindowOrDefault resolves a label, falling back to the one-hour default.
// An empty label also yields the default.
func WindowOrDefault(label string) Window {
	w, err := ParseWindow(label)
	if err != nil {
		return DefaultWindow
	}
	return w
}

// Since returns the cutoff instant for the window.
func (w Window) Since(now time.Time) time.Time {
	return now.Add(-w.Duration)
}
