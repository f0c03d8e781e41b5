package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/argussec/argusgo/internal/config"
	"github.com/argussec/argusgo/internal/graphql"
	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/storage"
)

func TestBackoffSchedule(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 5 * time.Second},
		{3, 15 * time.Second},
		{4, 30 * time.Second},
		{5, 60 * time.Second},
		{6, 60 * time.Second},
		{99, 60 * time.Second},
	}
	for _, c := range cases {
		if got := backoffFor(c.attempts); got != c.want {
			t.Errorf("backoffFor(%d) = %v, want %v", c.attempts, got, c.want)
		}
	}
}

func TestSyncNowWhileOfflineReturnsError(t *testing.T) {
	f := newFixtureAt(t, false)
	f.enqueue(t, "pending", models.PriorityNormal)

	err := f.svc.SyncNow(context.Background())
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("err = %v, want ErrOffline", err)
	}
	if n := f.client.callCount(); n != 0 {
		t.Errorf("client calls = %d while offline, want 0", n)
	}
}

func TestSyncPassDrainsQueue(t *testing.T) {
	f := newFixture(t)

	var sawSyncing bool
	f.svc.Subscribe(func(st models.SyncStatus) {
		if st.Syncing {
			sawSyncing = true
		}
	})

	f.enqueue(t, "a", models.PriorityNormal)
	f.enqueue(t, "b", models.PriorityNormal)

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if size := f.svc.Size(); size != 0 {
		t.Errorf("Size = %d after pass, want 0", size)
	}
	if n := f.client.callCount(); n != 2 {
		t.Errorf("client calls = %d, want 2", n)
	}
	if !sawSyncing {
		t.Error("listeners never saw the syncing flag raised")
	}
	st := f.svc.Status()
	if st.Syncing {
		t.Error("Syncing still true after pass")
	}
	if st.LastSyncAt == 0 {
		t.Error("LastSyncAt not recorded")
	}
	reports := f.passReports()
	if len(reports) != 1 || reports[0].Processed != 2 || reports[0].Aborted {
		t.Errorf("pass reports = %+v, want one clean report with Processed=2", reports)
	}
}

func TestSyncNowOnEmptyQueueIsNoOp(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if n := f.client.callCount(); n != 0 {
		t.Errorf("client calls = %d, want 0", n)
	}
	if n := len(f.passReports()); n != 0 {
		t.Errorf("pass reports = %d for empty queue, want 0", n)
	}
}

func TestSyncPassAbortsWhenClientUnavailable(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "stuck", models.PriorityNormal)

	f.avail.Store(false)
	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}

	if size := f.svc.Size(); size != 1 {
		t.Errorf("Size = %d after aborted pass, want 1", size)
	}
	ops := f.svc.Operations()
	if ops[0].Attempts != 0 {
		t.Errorf("Attempts = %d after aborted pass, want 0", ops[0].Attempts)
	}
	st := f.svc.Status()
	if st.Syncing {
		t.Error("Syncing still true after abort")
	}
	if len(st.Errors) != 1 || !strings.Contains(st.Errors[0], "execution client unavailable") {
		t.Errorf("Errors = %v, want the client unavailable message", st.Errors)
	}
	reports := f.passReports()
	if len(reports) != 1 || !reports[0].Aborted {
		t.Errorf("pass reports = %+v, want one aborted report", reports)
	}
}

func TestSyncPassesAreMutuallyExclusive(t *testing.T) {
	f := newFixture(t)

	block := make(chan struct{})
	f.client.setBlock(block)
	f.enqueue(t, "slow", models.PriorityNormal)

	done := make(chan error, 1)
	go func() { done <- f.svc.SyncNow(context.Background()) }()
	waitFor(t, time.Second, func() bool { return f.svc.Status().Syncing })

	// A second trigger while the pass holds the flag is a silent no-op
	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("second SyncNow: %v", err)
	}
	if n := f.client.callCount(); n != 1 {
		t.Errorf("client calls = %d during overlap, want 1", n)
	}
	if size := f.svc.Size(); size != 1 {
		t.Errorf("Size = %d mid-pass, want 1", size)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if size := f.svc.Size(); size != 0 {
		t.Errorf("Size = %d after release, want 0", size)
	}
	if n := len(f.passReports()); n != 1 {
		t.Errorf("pass reports = %d, want 1", n)
	}
}

func TestPanicInClientAbortsNonDestructively(t *testing.T) {
	f := newFixture(t)
	f.client.setHandler(func(graphql.Request) (*graphql.Response, error) {
		panic("wild pointer")
	})
	f.enqueue(t, "a", models.PriorityNormal)
	f.enqueue(t, "b", models.PriorityNormal)

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if size := f.svc.Size(); size != 2 {
		t.Errorf("Size = %d after panicking pass, want 2", size)
	}
	for _, op := range f.svc.Operations() {
		if op.Attempts != 0 {
			t.Errorf("%s Attempts = %d, want 0", op.Name, op.Attempts)
		}
	}
	st := f.svc.Status()
	if st.Syncing {
		t.Error("Syncing still true after panic abort")
	}
	if len(st.Errors) != 1 || !strings.Contains(st.Errors[0], "sync pass panic") {
		t.Errorf("Errors = %v, want the panic message", st.Errors)
	}
}

func TestRetryFollowsBackoffLadder(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.svc.Stop()

	f.client.fail(errors.New("backend down"))
	f.enqueue(t, "flaky", models.PriorityNormal)

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if size := f.svc.Size(); size != 0 {
		t.Fatalf("Size = %d with retry parked, want 0", size)
	}

	// First rung: 1s
	f.clk.Add(999 * time.Millisecond)
	if size := f.svc.Size(); size != 0 {
		t.Fatalf("re-inserted %v early, want parked until 1s", backoffLadder[0])
	}
	f.clk.Add(1 * time.Millisecond)
	ops := f.svc.Operations()
	if len(ops) != 1 || ops[0].Attempts != 1 {
		t.Fatalf("ops = %+v, want flaky back with Attempts=1", ops)
	}

	// Second rung: 5s
	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	f.clk.Add(4999 * time.Millisecond)
	if size := f.svc.Size(); size != 0 {
		t.Fatal("re-inserted early, want parked until 5s")
	}
	f.clk.Add(1 * time.Millisecond)
	ops = f.svc.Operations()
	if len(ops) != 1 || ops[0].Attempts != 2 {
		t.Fatalf("ops = %+v, want flaky back with Attempts=2", ops)
	}
}

func TestRetryReinsertsAtFront(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.svc.Stop()

	f.client.fail(errors.New("backend down"))
	f.enqueue(t, "flaky", models.PriorityNormal)
	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}

	f.enqueue(t, "crit", models.PriorityCritical)
	f.clk.Add(time.Second)

	got := opNames(f.svc.Operations())
	want := []string{"flaky", "crit"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("queue = %v, want retried op ahead of critical", got)
	}
}

func TestPartialDataCountsAsSuccess(t *testing.T) {
	f := newFixture(t)
	f.client.setHandler(func(graphql.Request) (*graphql.Response, error) {
		return &graphql.Response{
			Data:   json.RawMessage(`{"createIncident":{"id":"x"}}`),
			Errors: []graphql.ResponseError{{Message: "deprecated field"}},
		}, nil
	})
	f.enqueue(t, "partial", models.PriorityNormal)

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if size := f.svc.Size(); size != 0 {
		t.Errorf("Size = %d, want 0: partial data is success", size)
	}
	if n := len(f.svc.FailedOperations()); n != 0 {
		t.Errorf("archive = %d, want 0", n)
	}
}

func TestErrorOnlyResponseFails(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.svc.Stop()

	f.client.setHandler(func(graphql.Request) (*graphql.Response, error) {
		return &graphql.Response{
			Data:   json.RawMessage(`null`),
			Errors: []graphql.ResponseError{{Message: "unauthorized"}},
		}, nil
	})
	f.enqueue(t, "denied", models.PriorityNormal)

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	f.clk.Add(time.Second)

	ops := f.svc.Operations()
	if len(ops) != 1 || ops[0].Attempts != 1 {
		t.Fatalf("ops = %+v, want denied back with Attempts=1", ops)
	}
	if !strings.Contains(ops[0].Meta.LastError, "unauthorized") {
		t.Errorf("LastError = %q, want the graphql message", ops[0].Meta.LastError)
	}
}

func TestTerminalFailureArchivesAndMarksIncident(t *testing.T) {
	f := newFixture(t, func(c *config.QueueConfig) { c.DefaultMaxAttempts = 1 })

	f.client.fail(errors.New("schema mismatch"))
	f.avail.Store(false)
	id, err := f.svc.CreateIncident(IncidentDraft{Title: "cut fence", Severity: models.SeverityHigh})
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	f.avail.Store(true)

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}

	if n := len(f.svc.FailedOperations()); n != 1 {
		t.Fatalf("archive = %d, want 1", n)
	}
	inc, err := f.svc.Incident(id)
	if err != nil {
		t.Fatalf("Incident: %v", err)
	}
	if inc.Status != models.IncidentFailed {
		t.Errorf("incident status = %q, want failed", inc.Status)
	}
	if n := f.notes.titled("Operation failed"); n != 1 {
		t.Errorf("failure notifications = %d, want 1", n)
	}
	st := f.svc.Status()
	if st.FailedCount != 1 {
		t.Errorf("FailedCount = %d, want 1", st.FailedCount)
	}
	if len(st.Errors) != 1 || !strings.Contains(st.Errors[0], "schema mismatch") {
		t.Errorf("Errors = %v, want the terminal failure message", st.Errors)
	}
}

func TestReconnectSchedulesDeferredSync(t *testing.T) {
	f := newFixtureAt(t, false)
	if err := f.svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.svc.Stop()

	f.enqueue(t, "pending", models.PriorityNormal)
	if st := f.svc.Status(); st.Online {
		t.Fatal("status online before transition")
	}

	f.watcher.setOnline(true)
	if n := f.client.callCount(); n != 0 {
		t.Fatalf("client calls = %d right after reconnect, want 0 until the delay passes", n)
	}
	if n := f.notes.titled("Back online"); n != 1 {
		t.Errorf("reconnect notifications = %d, want 1", n)
	}

	f.clk.Add(2 * time.Second)
	if size := f.svc.Size(); size != 0 {
		t.Errorf("Size = %d after deferred sync, want 0", size)
	}
	if n := f.client.callCount(); n != 1 {
		t.Errorf("client calls = %d, want 1", n)
	}

	f.watcher.setOnline(false)
	if st := f.svc.Status(); st.Online {
		t.Error("status still online after going offline")
	}
}

func TestIncidentLifecycleThroughSync(t *testing.T) {
	f := newFixture(t)

	f.avail.Store(false)
	id, err := f.svc.CreateIncident(IncidentDraft{
		Title:    "badge cloned",
		Severity: models.SeverityHigh,
		Location: &models.GeoPoint{Lat: 52.52, Lng: 13.405},
		Tags:     []string{"access-control"},
	})
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	f.avail.Store(true)

	if !strings.HasPrefix(id, "inc_") {
		t.Errorf("incident id = %q, want inc_ prefix", id)
	}
	inc, err := f.svc.Incident(id)
	if err != nil {
		t.Fatalf("Incident: %v", err)
	}
	if inc.Status != models.IncidentDraft {
		t.Errorf("status = %q before sync, want draft", inc.Status)
	}
	if inc.LocalID == "" {
		t.Error("LocalID not minted")
	}

	ops := f.svc.Operations()
	if len(ops) != 1 || ops[0].Name != "CreateIncident" || ops[0].Priority != models.PriorityHigh {
		t.Fatalf("ops = %+v, want one high priority CreateIncident", ops)
	}

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	inc, _ = f.svc.Incident(id)
	if inc.Status != models.IncidentSynced {
		t.Errorf("status = %q after sync, want synced", inc.Status)
	}
	if size := f.svc.Size(); size != 0 {
		t.Errorf("Size = %d, want 0", size)
	}
}

func TestCriticalSeverityQueuesAtCriticalPriority(t *testing.T) {
	f := newFixture(t)

	f.avail.Store(false)
	if _, err := f.svc.CreateIncident(IncidentDraft{Title: "armed intruder", Severity: models.SeverityCritical}); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	ops := f.svc.Operations()
	if len(ops) != 1 || ops[0].Priority != models.PriorityCritical {
		t.Fatalf("ops = %+v, want critical priority", ops)
	}
	if ops[0].MaxAttempts != 10 {
		t.Errorf("MaxAttempts = %d for critical, want 10", ops[0].MaxAttempts)
	}
}

func TestCreateIncidentValidation(t *testing.T) {
	f := newFixture(t)
	f.avail.Store(false)

	if _, err := f.svc.CreateIncident(IncidentDraft{}); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := f.svc.CreateIncident(IncidentDraft{Title: "x", Severity: models.Severity("extreme")}); err == nil {
		t.Error("expected error for unknown severity")
	}

	id, err := f.svc.CreateIncident(IncidentDraft{Title: "no severity given"})
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	inc, _ := f.svc.Incident(id)
	if inc.Severity != models.SeverityMedium {
		t.Errorf("severity = %q, want medium default", inc.Severity)
	}
}

func TestCreateIncidentSurvivesFullQueue(t *testing.T) {
	f := newFixtureAt(t, false, func(c *config.QueueConfig) { c.MaxQueueSize = 1 })

	f.enqueue(t, "filler", models.PriorityCritical)

	id, err := f.svc.CreateIncident(IncidentDraft{Title: "blocked exit", Severity: models.SeverityMedium})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want wrapped ErrQueueFull", err)
	}
	if id == "" {
		t.Fatal("no id returned for locally saved incident")
	}
	inc, lookupErr := f.svc.Incident(id)
	if lookupErr != nil {
		t.Fatalf("Incident: %v", lookupErr)
	}
	if inc.Status != models.IncidentDraft {
		t.Errorf("status = %q, want draft", inc.Status)
	}
	if size := f.svc.Size(); size != 1 {
		t.Errorf("Size = %d, want the filler untouched", size)
	}
}

func TestUpdateIncidentMergesFields(t *testing.T) {
	f := newFixture(t)
	f.avail.Store(false)

	id, err := f.svc.CreateIncident(IncidentDraft{Title: "old title", Severity: models.SeverityLow})
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	f.clk.Add(time.Minute)

	title := "new title"
	if err := f.svc.UpdateIncident(id, IncidentPatch{
		Title: &title,
		Tags:  []string{"follow-up"},
	}); err != nil {
		t.Fatalf("UpdateIncident: %v", err)
	}

	inc, _ := f.svc.Incident(id)
	if inc.Title != "new title" {
		t.Errorf("title = %q, want merged value", inc.Title)
	}
	if inc.Status != models.IncidentQueued {
		t.Errorf("status = %q after update, want queued", inc.Status)
	}
	if len(inc.Tags) != 1 || inc.Tags[0] != "follow-up" {
		t.Errorf("tags = %v, want [follow-up]", inc.Tags)
	}
	if inc.UpdatedAt <= inc.CreatedAt {
		t.Errorf("UpdatedAt = %d not after CreatedAt = %d", inc.UpdatedAt, inc.CreatedAt)
	}
	if size := f.svc.Size(); size != 2 {
		t.Errorf("Size = %d, want create and update ops", size)
	}

	if err := f.svc.UpdateIncident("missing", IncidentPatch{}); !errors.Is(err, ErrIncidentNotFound) {
		t.Errorf("err = %v for unknown id, want ErrIncidentNotFound", err)
	}
	bad := models.Severity("extreme")
	if err := f.svc.UpdateIncident(id, IncidentPatch{Severity: &bad}); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestRequeueFailedIncident(t *testing.T) {
	f := newFixture(t, func(c *config.QueueConfig) { c.DefaultMaxAttempts = 1 })

	f.client.fail(errors.New("backend rejected"))
	f.avail.Store(false)
	id, err := f.svc.CreateIncident(IncidentDraft{Title: "smoke detected"})
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	f.avail.Store(true)

	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if inc, _ := f.svc.Incident(id); inc.Status != models.IncidentFailed {
		t.Fatalf("status = %q, want failed", inc.Status)
	}

	if err := f.svc.RequeueIncident(id); err != nil {
		t.Fatalf("RequeueIncident: %v", err)
	}
	if inc, _ := f.svc.Incident(id); inc.Status != models.IncidentQueued {
		t.Errorf("status = %q after requeue, want queued", inc.Status)
	}
	if size := f.svc.Size(); size != 1 {
		t.Errorf("Size = %d after requeue, want 1", size)
	}

	f.client.succeed()
	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if inc, _ := f.svc.Incident(id); inc.Status != models.IncidentSynced {
		t.Errorf("status = %q after retry, want synced", inc.Status)
	}

	if err := f.svc.RequeueIncident(id); !errors.Is(err, ErrNotFailed) {
		t.Errorf("err = %v for synced incident, want ErrNotFailed", err)
	}
	if err := f.svc.RequeueIncident("missing"); !errors.Is(err, ErrIncidentNotFound) {
		t.Errorf("err = %v for unknown id, want ErrIncidentNotFound", err)
	}
}

func TestIncidentsFilterAndOrder(t *testing.T) {
	f := newFixture(t)
	f.avail.Store(false)

	if _, err := f.svc.CreateIncident(IncidentDraft{Title: "first"}); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	f.clk.Add(time.Second)
	if _, err := f.svc.CreateIncident(IncidentDraft{Title: "second"}); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	all := f.svc.Incidents()
	if len(all) != 2 || all[0].Title != "second" {
		t.Fatalf("Incidents() = %+v, want newest first", all)
	}
	if n := len(f.svc.Incidents(models.IncidentDraft)); n != 2 {
		t.Errorf("draft filter = %d, want 2", n)
	}
	if n := len(f.svc.Incidents(models.IncidentSynced)); n != 0 {
		t.Errorf("synced filter = %d, want 0", n)
	}

	f.avail.Store(true)
	if err := f.svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if n := len(f.svc.Incidents(models.IncidentSynced)); n != 2 {
		t.Errorf("synced filter = %d after pass, want 2", n)
	}
}

func TestLeftoverSubscriptionRecordsAreArchived(t *testing.T) {
	store := storage.NewMemStore()
	leftovers := []models.Operation{{
		ID:          "ghost-1",
		Kind:        models.KindSubscription,
		Name:        "watchIncidents",
		Document:    "subscription { incidentUpdated { id } }",
		Priority:    models.PriorityNormal,
		EnqueuedAt:  1,
		MaxAttempts: 5,
	}}
	data, err := json.Marshal(leftovers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.Set(storage.KeyQueue, data); err != nil {
		t.Fatalf("Set: %v", err)
	}

	client := newFakeClient()
	svc, err := New(Options{
		Store:  store,
		Client: func() graphql.Client { return client },
		Clock:  clock.NewMock(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if size := svc.Size(); size != 1 {
		t.Fatalf("restored Size = %d, want 1", size)
	}

	if err := svc.SyncNow(context.Background()); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}
	if size := svc.Size(); size != 0 {
		t.Errorf("Size = %d, want the leftover archived", size)
	}
	failed := svc.FailedOperations()
	if len(failed) != 1 || failed[0].ID != "ghost-1" {
		t.Errorf("archive = %+v, want the ghost record", failed)
	}
	if n := client.callCount(); n != 0 {
		t.Errorf("client calls = %d for a subscription, want 0", n)
	}
}

func TestCancelledContextKeepsQueueIntact(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "a", models.PriorityNormal)
	f.enqueue(t, "b", models.PriorityNormal)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.svc.SyncNow(ctx); err != nil {
		t.Fatalf("SyncNow: %v", err)
	}

	if size := f.svc.Size(); size != 2 {
		t.Errorf("Size = %d after interrupted pass, want 2", size)
	}
	if n := f.client.callCount(); n != 0 {
		t.Errorf("client calls = %d, want 0", n)
	}
	st := f.svc.Status()
	if st.Syncing {
		t.Error("Syncing still true after interrupted pass")
	}
	found := false
	for _, msg := range st.Errors {
		if strings.Contains(msg, "pass interrupted") {
			found = true
		}
	}
	if !found {
		t.Errorf("Errors = %v, want an interruption message", st.Errors)
	}
}

func TestHighPriorityEnqueueTriggersImmediatePass(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Enqueue(EnqueueRequest{
		Name:     "urgent",
		Document: "mutation urgent { ping }",
		Priority: models.PriorityHigh,
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		return f.svc.Size() == 0 && f.client.callCount() == 1
	})
}

func TestStartupSyncDrainsRestoredQueue(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "heldOver", models.PriorityNormal)

	cfg := config.DefaultQueueConfig()
	cfg.SyncInterval = time.Hour
	restored, err := New(Options{
		Store:  f.store,
		Client: func() graphql.Client { return f.client },
		Config: cfg,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := restored.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer restored.Stop()

	waitFor(t, time.Second, func() bool { return restored.Size() == 0 })
	if n := f.client.callCount(); n != 1 {
		t.Errorf("client calls = %d, want 1", n)
	}
}
