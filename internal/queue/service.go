// Package queue implements the agent's offline operation queue: priority
// ordered buffering of GraphQL mutations and queries, durable persistence,
// staged retry backoff, and replay passes guarded against overlap.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/argussec/argusgo/internal/config"
	"github.com/argussec/argusgo/internal/graphql"
	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/netwatch"
	"github.com/argussec/argusgo/internal/notify"
	"github.com/argussec/argusgo/internal/storage"
)

var (
	ErrQueueFull                = errors.New("queue: full and nothing evictable")
	ErrOffline                  = errors.New("queue: backend offline")
	ErrSubscriptionNotSupported = errors.New("queue: subscription operations cannot be queued")
	ErrIncidentNotFound         = errors.New("queue: incident not found")
	ErrNotFailed                = errors.New("queue: incident has not failed")
)

// StatusListener receives aggregate status snapshots after queue activity
type StatusListener func(models.SyncStatus)

// PassReport summarizes one replay pass for history hooks
type PassReport struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Processed   int
	Retried     int
	Failed      int
	Aborted     bool
	Err         string   // abort reason, empty for completed passes
	Errors      []string // per-operation failure messages
}

// Options wires the service's collaborators
type Options struct {
	Store    storage.Store      // required
	Client   graphql.ClientFunc // nil means no execution client configured yet
	Watcher  netwatch.Watcher   // nil treats the backend as always reachable
	Notifier notify.Notifier    // nil falls back to the log sink
	Clock    clock.Clock        // nil uses the wall clock
	Config   config.QueueConfig // zero value loads defaults
	PassHook func(PassReport)   // optional, called after every pass
}

type retryEntry struct {
	op    *models.Operation
	timer *clock.Timer
}

// Service owns the queue state. Everything mutable sits behind mu; store
// writes happen under the lock, collaborator callbacks outside it.
type Service struct {
	cfg      config.QueueConfig
	store    storage.Store
	clientFn graphql.ClientFunc
	watcher  netwatch.Watcher
	notifier notify.Notifier
	clk      clock.Clock
	passHook func(PassReport)

	mu        sync.Mutex
	ops       []*models.Operation
	incidents []*models.Incident
	failed    []*models.Operation
	status    models.SyncStatus
	syncing   bool
	listeners map[string]StatusListener
	retries   map[string]retryEntry

	running    bool
	stopChan   chan struct{}
	watchToken string
}

// New builds a service and loads persisted state. Records that fail to
// decode reset to empty defaults; a stored syncing flag never survives a
// restart.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("queue: store is required")
	}
	cfg := opts.Config
	if cfg.MaxQueueSize == 0 {
		cfg = config.DefaultQueueConfig()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}

	s := &Service{
		cfg:       cfg,
		store:     opts.Store,
		clientFn:  opts.Client,
		watcher:   opts.Watcher,
		notifier:  notifier,
		clk:       clk,
		passHook:  opts.PassHook,
		listeners: make(map[string]StatusListener),
		retries:   make(map[string]retryEntry),
	}
	s.load()
	return s, nil
}

// load restores the four persisted records
func (s *Service) load() {
	s.loadRecord(storage.KeyQueue, &s.ops)
	s.loadRecord(storage.KeyIncidents, &s.incidents)
	s.loadRecord(storage.KeyFailedOps, &s.failed)

	// Restore the ordering invariant in case an older record predates it
	sort.SliceStable(s.ops, func(i, j int) bool { return s.ops[i].Before(s.ops[j]) })

	var st models.SyncStatus
	s.loadRecord(storage.KeySyncStatus, &st)
	st.Syncing = false // a crash mid-pass must not wedge the queue
	st.PendingCount = len(s.ops)
	if s.watcher != nil {
		st.Online = s.watcher.Current().Connected
	} else {
		st.Online = true
	}
	s.status = st

	if len(s.ops) > 0 {
		log.Printf("📦 Restored %d queued operations", len(s.ops))
	}
}

func (s *Service) loadRecord(key string, target any) {
	data, err := s.store.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("⚠️ Failed to read %s, starting empty: %v", key, err)
		}
		return
	}
	if err := json.Unmarshal(data, target); err != nil {
		log.Printf("⚠️ Corrupt %s record, starting empty: %v", key, err)
	}
}

// Start arms the periodic sync ticker and the reachability subscription
func (s *Service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("queue: already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	if s.watcher != nil {
		s.watchToken = s.watcher.Subscribe(s.onReachabilityChange)
	}
	startup := s.cfg.SyncOnStartup && len(s.ops) > 0 && s.status.Online
	s.mu.Unlock()

	go s.autoSyncLoop(stop)
	if startup {
		go s.processQueue(context.Background())
	}
	log.Println("🔄 Offline queue started")
	return nil
}

// Stop halts the sync loop and retry timers, then persists a final
// snapshot. Operations parked on retry timers re-enter the queue first so
// they survive the restart.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	token := s.watchToken
	s.watchToken = ""

	for id, entry := range s.retries {
		entry.timer.Stop()
		delete(s.retries, id)
		s.insertFrontLocked(entry.op)
	}
	s.persistAllLocked()
	s.mu.Unlock()

	if s.watcher != nil && token != "" {
		s.watcher.Unsubscribe(token)
	}
	log.Println("🛑 Offline queue stopped")
}

func (s *Service) autoSyncLoop(stop chan struct{}) {
	ticker := s.clk.Ticker(s.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processQueue(context.Background())
		case <-stop:
			return
		}
	}
}

// onReachabilityChange reacts to connectivity transitions. Going online
// schedules a deferred pass so the link settles first; going offline only
// flips the flag, a pass already running keeps going.
func (s *Service) onReachabilityChange(st netwatch.State) {
	s.mu.Lock()
	was := s.status.Online
	s.status.Online = st.Connected
	if was == st.Connected {
		s.mu.Unlock()
		return
	}
	s.persistStatusLocked()
	pending := len(s.ops)
	s.mu.Unlock()
	s.notifyListeners()

	if st.Connected {
		log.Printf("🔗 Back online, %d operations pending", pending)
		if pending > 0 {
			s.notify(notify.Notification{
				Title:   "Back online",
				Message: fmt.Sprintf("Syncing %d pending operations", pending),
				Kind:    notify.KindInfo,
			})
		}
		s.clk.AfterFunc(s.cfg.ReconnectDelay, func() {
			s.processQueue(context.Background())
		})
	} else {
		log.Println("📴 Offline, operations will queue locally")
	}
}

// Subscribe registers a status listener and returns its removal token
func (s *Service) Subscribe(fn StatusListener) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.listeners[token] = fn
	return token
}

// Unsubscribe removes a listener. Unknown tokens are ignored.
func (s *Service) Unsubscribe(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, token)
}

func (s *Service) notifyListeners() {
	s.mu.Lock()
	st := s.status.Clone()
	st.PendingCount = len(s.ops)
	fns := make([]StatusListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// notify forwards to the sink; a misbehaving sink must never take down a
// sync pass
func (s *Service) notify(n notify.Notification) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Notification sink panic: %v", r)
		}
	}()
	s.notifier.Notify(n)
}

// Status returns the aggregate sync status snapshot
func (s *Service) Status() models.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status.Clone()
	st.PendingCount = len(s.ops)
	return st
}

// Size returns the number of operations in the active queue. Operations
// waiting on a retry timer rejoin the count when their re-insertion fires.
func (s *Service) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// Operations returns a snapshot of the active queue in execution order
func (s *Service) Operations() []models.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Operation, 0, len(s.ops))
	for _, op := range s.ops {
		out = append(out, *op)
	}
	return out
}

// FailedOperations returns the terminal-failure archive, oldest first
func (s *Service) FailedOperations() []models.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Operation, 0, len(s.failed))
	for _, op := range s.failed {
		out = append(out, *op)
	}
	return out
}

// Persistence helpers. Write failures are logged, never fatal: the
// in-memory queue stays authoritative and the next mutation retries the
// write.

func (s *Service) persistQueueLocked() {
	s.persistRecordLocked(storage.KeyQueue, s.ops)
	s.status.PendingCount = len(s.ops)
}

func (s *Service) persistIncidentsLocked() {
	s.persistRecordLocked(storage.KeyIncidents, s.incidents)
}

func (s *Service) persistFailedLocked() {
	s.persistRecordLocked(storage.KeyFailedOps, s.failed)
}

func (s *Service) persistStatusLocked() {
	st := s.status.Clone()
	st.PendingCount = len(s.ops)
	s.persistRecordLocked(storage.KeySyncStatus, st)
}

func (s *Service) persistAllLocked() {
	s.persistQueueLocked()
	s.persistIncidentsLocked()
	s.persistFailedLocked()
	s.persistStatusLocked()
}

func (s *Service) persistRecordLocked(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s: %v", key, err)
		return
	}
	if err := s.store.Set(key, data); err != nil {
		log.Printf("⚠️ Failed to persist %s: %v", key, err)
	}
}
