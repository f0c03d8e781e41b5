package netwatch

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Stats accumulates probe outcomes for diagnostics
type Stats struct {
	SuccessCount int           `json:"successCount"`
	FailureCount int           `json:"failureCount"`
	LastSuccess  *time.Time    `json:"lastSuccess,omitempty"`
	LastFailure  *time.Time    `json:"lastFailure,omitempty"`
	AvgLatency   time.Duration `json:"avgLatency"`

	latencySum   time.Duration
	latencyCount int
}

// Monitor probes a single URL on an interval and reports reachability.
// Any HTTP response counts as connected: the probe answers "can we reach
// the backend host", not "is the service healthy". An empty probe URL
// pins the monitor offline, which is how unconfigured agents behave.
type Monitor struct {
	mu sync.RWMutex

	probeURL string
	interval time.Duration
	client   *http.Client
	clk      clock.Clock

	state State
	stats Stats
	subs  map[string]func(State)

	running bool
	stop    chan struct{}
}

// NewMonitor creates a monitor. It does not probe until Start or Probe is
// called; Current reports offline until the first probe completes.
func NewMonitor(probeURL string, interval time.Duration, clk clock.Clock) *Monitor {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		probeURL: probeURL,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		clk:      clk,
		subs:     make(map[string]func(State)),
	}
}

// Start begins the periodic probe loop
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	go m.probeLoop(stop)
}

// Stop halts the probe loop
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stop)
}

// Current returns the latest reachability snapshot
func (m *Monitor) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ProbeStats returns accumulated probe counters
func (m *Monitor) ProbeStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Subscribe registers a transition callback and returns its removal token
func (m *Monitor) Subscribe(fn func(State)) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.subs[token] = fn
	return token
}

// Unsubscribe removes a previously registered callback
func (m *Monitor) Unsubscribe(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, token)
}

// Probe runs one reachability check and returns the resulting state
func (m *Monitor) Probe() State {
	connected, latency := m.checkOnce()

	m.mu.Lock()
	now := m.clk.Now()
	was := m.state.Connected
	m.state = State{Connected: connected, CheckedAt: now, Latency: latency}
	if connected {
		m.stats.SuccessCount++
		m.stats.LastSuccess = &now
		m.stats.latencySum += latency
		m.stats.latencyCount++
		m.stats.AvgLatency = m.stats.latencySum / time.Duration(m.stats.latencyCount)
	} else {
		m.stats.FailureCount++
		m.stats.LastFailure = &now
	}
	state := m.state
	changed := was != connected
	var fns []func(State)
	if changed {
		for _, fn := range m.subs {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	if changed {
		if connected {
			log.Printf("🔗 Backend reachable (%v)", latency.Round(time.Millisecond))
		} else {
			log.Printf("📴 Backend unreachable")
		}
		for _, fn := range fns {
			fn(state)
		}
	}
	return state
}

func (m *Monitor) checkOnce() (bool, time.Duration) {
	if m.probeURL == "" {
		return false, 0
	}
	start := time.Now()
	resp, err := m.client.Get(m.probeURL)
	latency := time.Since(start)
	if err != nil {
		return false, 0
	}
	resp.Body.Close()
	return true, latency
}

func (m *Monitor) probeLoop(stop chan struct{}) {
	ticker := m.clk.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Probe()
		case <-stop:
			return
		}
	}
}
