package notify

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ThrottledNotifier drops repeats of the same notification inside a window.
// A flapping uplink would otherwise turn every reconnect into a fresh
// "back online" message.
type ThrottledNotifier struct {
	inner  Notifier
	window time.Duration
	clk    clock.Clock

	mu   sync.Mutex
	seen map[string]time.Time
}

// Throttled wraps inner with repeat suppression. A zero window disables
// suppression and passes everything through.
func Throttled(inner Notifier, window time.Duration, clk clock.Clock) *ThrottledNotifier {
	if clk == nil {
		clk = clock.New()
	}
	return &ThrottledNotifier{
		inner:  inner,
		window: window,
		clk:    clk,
		seen:   make(map[string]time.Time),
	}
}

// Notify implements Notifier
func (t *ThrottledNotifier) Notify(n Notification) {
	if t.window <= 0 {
		t.inner.Notify(n)
		return
	}

	key := string(n.Kind) + "|" + n.Title + "|" + n.Message
	now := t.clk.Now()

	t.mu.Lock()
	if last, ok := t.seen[key]; ok && now.Sub(last) < t.window {
		t.mu.Unlock()
		return
	}
	t.seen[key] = now

	// Trim stale entries once the map grows
	if len(t.seen) > 1000 {
		for k, v := range t.seen {
			if now.Sub(v) > 2*t.window {
				delete(t.seen, k)
			}
		}
	}
	t.mu.Unlock()

	t.inner.Notify(n)
}
