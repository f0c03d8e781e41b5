package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/notify"
)

// EnqueueRequest describes an operation to buffer
type EnqueueRequest struct {
	Kind        models.OperationKind `json:"kind"`
	Name        string               `json:"name"`
	Document    string               `json:"document"`
	Variables   map[string]any       `json:"variables,omitempty"`
	Priority    models.Priority      `json:"priority"`
	MaxAttempts int                  `json:"maxAttempts,omitempty"` // 0 uses the priority default
	IncidentID  string               `json:"incidentId,omitempty"`  // links the operation to a local incident record
	Notify      bool                 `json:"notify,omitempty"`      // emit a notification when the operation succeeds
}

// Enqueue buffers an operation for replay and returns its id. Subscriptions
// are rejected outright. High and critical operations trigger an immediate
// async pass when the backend is reachable and a client is configured.
func (s *Service) Enqueue(req EnqueueRequest) (string, error) {
	if req.Kind == models.KindSubscription {
		return "", ErrSubscriptionNotSupported
	}
	if req.Kind == "" {
		req.Kind = models.KindMutation
	}
	if !req.Kind.Replayable() {
		return "", fmt.Errorf("queue: unsupported operation kind %q", req.Kind)
	}
	if req.Document == "" {
		return "", errors.New("queue: operation document is required")
	}
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}
	if !req.Priority.Valid() {
		return "", fmt.Errorf("queue: unknown priority %q", req.Priority)
	}

	var vars datatypes.JSON
	if req.Variables != nil {
		data, err := json.Marshal(req.Variables)
		if err != nil {
			return "", fmt.Errorf("queue: encode variables: %w", err)
		}
		vars = datatypes.JSON(data)
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.cfg.DefaultMaxAttempts
		if req.Priority == models.PriorityCritical {
			maxAttempts = s.cfg.CriticalMaxAttempts
		}
	}

	op := &models.Operation{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Name:        req.Name,
		Document:    req.Document,
		Variables:   vars,
		Priority:    req.Priority,
		EnqueuedAt:  s.clk.Now().UnixMilli(),
		MaxAttempts: maxAttempts,
		Meta: models.OperationMeta{
			IncidentID: req.IncidentID,
			Notify:     req.Notify,
		},
	}

	s.mu.Lock()
	var evicted *models.Operation
	if len(s.ops) >= s.cfg.MaxQueueSize {
		victim, ok := s.evictLocked(op.Priority)
		if !ok {
			s.mu.Unlock()
			return "", ErrQueueFull
		}
		evicted = victim
		if evicted.Meta.IncidentID != "" && s.markIncidentLocked(evicted.Meta.IncidentID, models.IncidentFailed) {
			s.persistIncidentsLocked()
		}
	}
	s.insertLocked(op)
	s.persistQueueLocked()
	online := s.status.Online
	s.mu.Unlock()
	s.notifyListeners()

	if evicted != nil {
		log.Printf("⚠️ Queue full, evicted %s (%s)", displayName(evicted), evicted.Priority)
		s.notify(notify.Notification{
			Title:   "Operation dropped",
			Message: fmt.Sprintf("%s was evicted to make room for higher priority work", displayName(evicted)),
			Kind:    notify.KindWarning,
			Data:    map[string]any{"operationId": evicted.ID},
		})
	}

	if online && op.Priority.Rank() >= models.PriorityHigh.Rank() && s.clientAvailable() {
		go s.processQueue(context.Background())
	}
	return op.ID, nil
}

// Clear wipes the active queue and cancels pending retries, discarding
// their operations. Incident records stay untouched.
func (s *Service) Clear() error {
	s.mu.Lock()
	dropped := len(s.ops) + len(s.retries)
	for id, entry := range s.retries {
		entry.timer.Stop()
		delete(s.retries, id)
	}
	s.ops = nil
	s.persistQueueLocked()
	s.mu.Unlock()
	s.notifyListeners()

	if dropped > 0 {
		log.Printf("📦 Cleared %d queued operations", dropped)
	}
	return nil
}

// ClearFailed empties the terminal-failure archive and drops any active
// operation that has already exhausted its attempts
func (s *Service) ClearFailed() error {
	s.mu.Lock()
	cleared := len(s.failed)
	s.failed = nil
	kept := s.ops[:0]
	for _, op := range s.ops {
		if op.Attempts >= op.MaxAttempts {
			cleared++
			continue
		}
		kept = append(kept, op)
	}
	s.ops = kept
	s.status.FailedCount = 0
	s.persistQueueLocked()
	s.persistFailedLocked()
	s.persistStatusLocked()
	s.mu.Unlock()
	s.notifyListeners()

	if cleared > 0 {
		log.Printf("📦 Dropped %d failed operations", cleared)
	}
	return nil
}

func (s *Service) clientAvailable() bool {
	return s.clientFn != nil && s.clientFn() != nil
}

func displayName(op *models.Operation) string {
	if op.Name != "" {
		return op.Name
	}
	return string(op.Kind)
}

// insertLocked places op by priority rank, FIFO within its bucket
func (s *Service) insertLocked(op *models.Operation) {
	idx := sort.Search(len(s.ops), func(i int) bool {
		return op.Before(s.ops[i])
	})
	s.ops = append(s.ops, nil)
	copy(s.ops[idx+1:], s.ops[idx:])
	s.ops[idx] = op
	s.status.PendingCount = len(s.ops)
}

// insertFrontLocked puts op at the head regardless of priority. Retried
// operations earned their slot and run before anything else next pass.
func (s *Service) insertFrontLocked(op *models.Operation) {
	s.ops = append([]*models.Operation{op}, s.ops...)
	s.status.PendingCount = len(s.ops)
}

// evictLocked removes the oldest operation of the lowest priority strictly
// below incoming. Returns false when nothing qualifies.
func (s *Service) evictLocked(incoming models.Priority) (*models.Operation, bool) {
	victim := -1
	for i, op := range s.ops {
		r := op.Priority.Rank()
		if r >= incoming.Rank() {
			continue
		}
		if victim == -1 || r < s.ops[victim].Priority.Rank() ||
			(r == s.ops[victim].Priority.Rank() && op.EnqueuedAt < s.ops[victim].EnqueuedAt) {
			victim = i
		}
	}
	if victim == -1 {
		return nil, false
	}
	op := s.ops[victim]
	s.ops = append(s.ops[:victim], s.ops[victim+1:]...)
	s.status.PendingCount = len(s.ops)
	return op, true
}
