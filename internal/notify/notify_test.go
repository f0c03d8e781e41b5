package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type captureNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (c *captureNotifier) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

func TestMultiFansOut(t *testing.T) {
	a := &captureNotifier{}
	b := &captureNotifier{}
	Multi(a, b).Notify(Notification{Title: "Sync complete", Kind: KindSuccess})

	if a.count() != 1 || b.count() != 1 {
		t.Errorf("expected both sinks to receive, got %d and %d", a.count(), b.count())
	}
}

func TestThrottledSuppressesRepeats(t *testing.T) {
	mock := clock.NewMock()
	sink := &captureNotifier{}
	th := Throttled(sink, 5*time.Minute, mock)

	n := Notification{Title: "Back online", Message: "backend reachable", Kind: KindInfo}
	th.Notify(n)
	th.Notify(n)
	th.Notify(n)
	if sink.count() != 1 {
		t.Fatalf("expected 1 delivery inside window, got %d", sink.count())
	}

	// A different message is not suppressed
	th.Notify(Notification{Title: "Operation failed", Kind: KindError})
	if sink.count() != 2 {
		t.Fatalf("distinct notification suppressed, got %d", sink.count())
	}

	// Past the window the repeat goes through again
	mock.Add(5 * time.Minute)
	th.Notify(n)
	if sink.count() != 3 {
		t.Fatalf("expected delivery after window, got %d", sink.count())
	}
}

func TestThrottledZeroWindowPassesThrough(t *testing.T) {
	sink := &captureNotifier{}
	th := Throttled(sink, 0, clock.NewMock())

	n := Notification{Title: "x", Kind: KindInfo}
	th.Notify(n)
	th.Notify(n)
	if sink.count() != 2 {
		t.Errorf("zero window must not suppress, got %d", sink.count())
	}
}
