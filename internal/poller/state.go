package poller

import (
	"time"

	"github.com/bher20/fxratemanager/internal/rates"
)

// Mode describes why a fetch was started.
type Mode string

const (
	// ModeLoading is the first fetch, made while no snapshot is held.
	ModeLoading Mode = "loading"
	// ModeBackground is a fetch made by the auto-refresh task.
	ModeBackground Mode = "background"
	// ModeManual is a fetch requested through Refresh.
	ModeManual Mode = "manual"
)

// State is the poller's presentation state. Values handed out by the
// poller are copies; mutating them has no effect.
type State struct {
	Snapshot    *rates.Snapshot
	AutoRefresh bool
	Fetching    bool
}

// LastUpdated returns the held snapshot's own timestamp, not the time it
// was received.
func (s State) LastUpdated() (time.Time, bool) {
	if s.Snapshot == nil || s.Snapshot.Timestamp.IsZero() {
		return time.Time{}, false
	}
	return s.Snapshot.Timestamp.Time, true
}

// Loading reports whether the caller should show a loading indicator
// instead of data.
func (s State) Loading() bool {
	return s.Snapshot == nil && s.Fetching
}

// CanRefresh reports whether a refresh control should be enabled. It is
// advisory: Refresh itself never refuses.
func (s State) CanRefresh() bool {
	return !s.Fetching
}

// Level is the severity of a Notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient, dismissable message about a fetch outcome.
type Notification struct {
	Level   Level
	Mode    Mode
	Message string
	Err     error
	At      time.Time
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc is a function adapter for Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}
