package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/argussec/argusgo/internal/graphql"
	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/notify"
)

// Retry backoff ladder. Attempt n waits ladder[n-1]; attempts past the end
// clamp to the last rung.
var backoffLadder = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

func backoffFor(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > len(backoffLadder) {
		attempts = len(backoffLadder)
	}
	return backoffLadder[attempts-1]
}

// SyncNow runs a replay pass on the caller's goroutine. Unlike the
// automatic triggers it reports being offline as an error; an already
// running pass or an empty queue is a silent no-op.
func (s *Service) SyncNow(ctx context.Context) error {
	s.mu.Lock()
	online := s.status.Online
	s.mu.Unlock()
	if !online {
		return ErrOffline
	}
	s.processQueue(ctx)
	return nil
}

type passResult struct {
	processed map[string]bool
	retried   map[string]time.Duration
	terminal  map[string]bool
	notes     []notify.Notification
	errors    []string
	ctxErr    error
}

// processQueue is the single replay pass. Overlapping triggers no-op on the
// syncing flag; a pass that cannot run at all aborts without touching the
// queue so every operation gets another chance later.
func (s *Service) processQueue(ctx context.Context) {
	s.mu.Lock()
	if s.syncing || len(s.ops) == 0 || !s.status.Online {
		s.mu.Unlock()
		return
	}
	s.syncing = true
	s.status.Syncing = true
	s.status.Errors = nil
	snapshot := append([]*models.Operation(nil), s.ops...)
	s.persistStatusLocked()
	s.mu.Unlock()
	s.notifyListeners()

	started := s.clk.Now()
	log.Printf("🔄 Sync pass started: %d operations", len(snapshot))

	var client graphql.Client
	if s.clientFn != nil {
		client = s.clientFn()
	}
	if client == nil {
		s.abortPass(started, "execution client unavailable")
		return
	}

	res := &passResult{
		processed: make(map[string]bool),
		retried:   make(map[string]time.Duration),
		terminal:  make(map[string]bool),
	}
	if err := s.iterate(ctx, client, snapshot, res); err != nil {
		s.abortPass(started, err.Error())
		return
	}
	s.finishPass(started, res)
}

// iterate walks the snapshot and executes each operation. A panic out of
// the client surfaces as an error so the pass aborts non-destructively.
func (s *Service) iterate(ctx context.Context, client graphql.Client, snapshot []*models.Operation, res *passResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync pass panic: %v", r)
		}
	}()

	for _, op := range snapshot {
		select {
		case <-ctx.Done():
			res.ctxErr = ctx.Err()
			return nil
		default:
		}
		// Persisted queues from older builds may still hold kinds the
		// pass cannot replay; archive them instead of skipping forever.
		if !op.Kind.Replayable() {
			res.terminal[op.ID] = true
			log.Printf("⚠️ Archiving unsupported %s operation %s", op.Kind, op.ID)
			continue
		}

		if op.Meta.IncidentID != "" {
			s.mu.Lock()
			if inc := s.findIncidentLocked(op.Meta.IncidentID); inc != nil && inc.Status == models.IncidentDraft {
				inc.Status = models.IncidentQueued
				inc.UpdatedAt = s.clk.Now().UnixMilli()
			}
			s.mu.Unlock()
		}

		execErr := s.execute(ctx, client, op)
		if execErr == nil {
			res.processed[op.ID] = true
			s.mu.Lock()
			op.Meta.LastError = ""
			if op.Meta.IncidentID != "" {
				s.markIncidentLocked(op.Meta.IncidentID, models.IncidentSynced)
			}
			wantNote := op.Meta.Notify && s.cfg.NotifyOnSuccess
			s.mu.Unlock()
			log.Printf("✅ %s synced", displayName(op))
			if wantNote {
				res.notes = append(res.notes, notify.Notification{
					Title:   "Synced",
					Message: fmt.Sprintf("%s completed", displayName(op)),
					Kind:    notify.KindSuccess,
					Data:    map[string]any{"operationId": op.ID},
				})
			}
			continue
		}

		s.mu.Lock()
		op.Attempts++
		op.Meta.LastError = execErr.Error()
		attempts, max := op.Attempts, op.MaxAttempts
		if attempts >= max && op.Meta.IncidentID != "" {
			s.markIncidentLocked(op.Meta.IncidentID, models.IncidentFailed)
		}
		s.mu.Unlock()

		if attempts < max {
			delay := backoffFor(attempts)
			res.retried[op.ID] = delay
			log.Printf("⚠️ %s failed (attempt %d/%d), retrying in %v: %v",
				displayName(op), attempts, max, delay, execErr)
		} else {
			res.terminal[op.ID] = true
			res.errors = append(res.errors, fmt.Sprintf("%s: %v", displayName(op), execErr))
			log.Printf("🛑 %s failed permanently after %d attempts: %v", displayName(op), attempts, execErr)
			res.notes = append(res.notes, notify.Notification{
				Title:   "Operation failed",
				Message: fmt.Sprintf("%s gave up after %d attempts", displayName(op), attempts),
				Kind:    notify.KindError,
				Data:    map[string]any{"operationId": op.ID, "error": execErr.Error()},
			})
		}
	}
	return nil
}

// finishPass reconciles the live queue against the pass outcome. Processed
// and terminal operations leave the queue, retried ones move onto timers;
// anything enqueued mid-pass stays put.
func (s *Service) finishPass(started time.Time, res *passResult) {
	s.mu.Lock()
	var toRetry []*models.Operation
	kept := make([]*models.Operation, 0, len(s.ops))
	for _, op := range s.ops {
		switch {
		case res.processed[op.ID]:
		case res.terminal[op.ID]:
			s.failed = append(s.failed, op)
		default:
			if _, ok := res.retried[op.ID]; ok {
				toRetry = append(toRetry, op)
				continue
			}
			kept = append(kept, op)
		}
	}
	s.ops = kept
	if over := len(s.failed) - s.cfg.FailedArchiveLimit; over > 0 {
		s.failed = append([]*models.Operation(nil), s.failed[over:]...)
	}
	s.syncing = false
	s.status.Syncing = false
	s.status.PendingCount = len(s.ops)
	s.status.FailedCount = len(res.terminal)
	s.status.LastSyncAt = s.clk.Now().UnixMilli()
	s.status.Errors = res.errors
	if res.ctxErr != nil {
		s.status.Errors = append(s.status.Errors, fmt.Sprintf("pass interrupted: %v", res.ctxErr))
	}
	s.persistAllLocked()
	s.mu.Unlock()

	for _, op := range toRetry {
		s.scheduleRetry(op, res.retried[op.ID])
	}
	s.notifyListeners()
	for _, n := range res.notes {
		s.notify(n)
	}

	duration := s.clk.Now().Sub(started)
	log.Printf("✅ Sync pass completed in %v: %d synced, %d retrying, %d failed",
		duration.Round(time.Millisecond), len(res.processed), len(res.retried), len(res.terminal))

	if s.passHook != nil {
		s.passHook(PassReport{
			StartedAt:   started,
			CompletedAt: s.clk.Now(),
			Processed:   len(res.processed),
			Retried:     len(res.retried),
			Failed:      len(res.terminal),
			Errors:      append([]string(nil), res.errors...),
		})
	}
}

// abortPass releases the syncing flag and records the reason. The queue
// itself is untouched.
func (s *Service) abortPass(started time.Time, msg string) {
	s.mu.Lock()
	s.syncing = false
	s.status.Syncing = false
	s.status.Errors = []string{msg}
	s.persistStatusLocked()
	s.mu.Unlock()
	s.notifyListeners()

	log.Printf("⚠️ Sync pass aborted: %s", msg)
	if s.passHook != nil {
		s.passHook(PassReport{
			StartedAt:   started,
			CompletedAt: s.clk.Now(),
			Aborted:     true,
			Err:         msg,
		})
	}
}

// execute runs one operation against the client. Transport failures and
// all-error responses fail the operation; partial data counts as success.
func (s *Service) execute(ctx context.Context, client graphql.Client, op *models.Operation) error {
	req := graphql.Request{Name: op.Name, Document: op.Document}
	if len(op.Variables) > 0 {
		if err := json.Unmarshal(op.Variables, &req.Variables); err != nil {
			return fmt.Errorf("decode variables: %w", err)
		}
	}

	var (
		resp *graphql.Response
		err  error
	)
	if op.Kind == models.KindQuery {
		resp, err = client.Query(ctx, req)
	} else {
		resp, err = client.Mutate(ctx, req)
	}
	if err != nil {
		return err
	}
	if resp == nil {
		return errors.New("empty response")
	}
	if !resp.HasData() && len(resp.Errors) > 0 {
		return fmt.Errorf("graphql: %s", strings.Join(resp.ErrorMessages(), "; "))
	}
	return nil
}

// scheduleRetry parks op on a delayed front re-insertion. Until the timer
// fires the operation is invisible to passes. Without a running service
// there is nobody to cancel timers at shutdown, so the operation goes
// straight back to the front instead.
func (s *Service) scheduleRetry(op *models.Operation, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.insertFrontLocked(op)
		s.persistQueueLocked()
		return
	}
	id := op.ID
	timer := s.clk.AfterFunc(delay, func() { s.retryFire(id) })
	s.retries[id] = retryEntry{op: op, timer: timer}
}

// retryFire moves a parked operation back to the queue head and persists
// the re-insertion. High priority work kicks off a pass right away.
func (s *Service) retryFire(id string) {
	s.mu.Lock()
	entry, ok := s.retries[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.retries, id)
	s.insertFrontLocked(entry.op)
	s.persistQueueLocked()
	online := s.status.Online
	high := entry.op.Priority.Rank() >= models.PriorityHigh.Rank()
	s.mu.Unlock()
	s.notifyListeners()

	log.Printf("🔄 Retrying %s (attempt %d/%d)",
		displayName(entry.op), entry.op.Attempts+1, entry.op.MaxAttempts)
	if online && high && s.clientAvailable() {
		go s.processQueue(context.Background())
	}
}
