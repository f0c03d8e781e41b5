// Package notify delivers user-facing messages about queue activity to
// whatever surfaces the agent has attached: the process log, the websocket
// feed, or both.
package notify

import "log"

// Kind classifies a notification for UI styling
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is one user-facing message
type Notification struct {
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Kind    Kind           `json:"kind"`
	Data    map[string]any `json:"data,omitempty"`
}

// Notifier is the sink interface. Implementations must not block the
// caller for long; the queue fires notifications from its sync path.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to the process log
type LogNotifier struct{}

// Notify implements Notifier
func (LogNotifier) Notify(n Notification) {
	prefix := "ℹ️"
	switch n.Kind {
	case KindSuccess:
		prefix = "✅"
	case KindWarning:
		prefix = "⚠️"
	case KindError:
		prefix = "🛑"
	}
	log.Printf("%s %s: %s", prefix, n.Title, n.Message)
}

type multiNotifier struct {
	sinks []Notifier
}

// Multi fans one notification out to several sinks
func Multi(sinks ...Notifier) Notifier {
	return &multiNotifier{sinks: sinks}
}

// Notify implements Notifier
func (m *multiNotifier) Notify(n Notification) {
	for _, s := range m.sinks {
		s.Notify(n)
	}
}
