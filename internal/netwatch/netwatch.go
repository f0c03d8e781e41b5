// Package netwatch tracks reachability of the Argus backend. The queue only
// consumes the Watcher interface; the HTTP prober lives in Monitor so tests
// can substitute a scripted watcher.
package netwatch

import "time"

// State is a point-in-time reachability snapshot
type State struct {
	Connected bool          `json:"connected"`
	CheckedAt time.Time     `json:"checkedAt"`
	Latency   time.Duration `json:"latency"`
}

// Watcher reports connectivity and fans out transitions to subscribers.
// Callbacks fire on Connected flips only, not on every probe.
type Watcher interface {
	Current() State
	Subscribe(fn func(State)) string
	Unsubscribe(token string)
}
