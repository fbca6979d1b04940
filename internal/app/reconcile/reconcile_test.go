package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teeline/teeline/internal/domain"
	"github.com/teeline/teeline/internal/infra/remote"
	"github.com/teeline/teeline/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertAwaiting(t *testing.T, db *sqlite.DB, vapiID string) int64 {
	t.Helper()
	id, err := db.InsertCall(domain.Call{
		PhoneNumber:   "+14254658948",
		ScheduledTime: time.Now().UnixMilli(),
		Status:        domain.StatusInProgress,
		Type:          domain.TypeAIAgent,
		VapiCallID:    vapiID,
	})
	if err != nil {
		t.Fatalf("InsertCall() error: %v", err)
	}
	return id
}

// resultBackend serves poll/refresh responses per external id; ids absent
// from the map get a 502.
func resultBackend(t *testing.T, results map[string]remote.CallStatusResponse) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Path shape: /calls/vapi/{id}/status or /calls/vapi/{id}/refresh
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 4 || parts[0] != "calls" || parts[1] != "vapi" {
			http.NotFound(w, r)
			return
		}
		resp, ok := results[parts[2]]
		if !ok {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"detail": "provider timeout"})
			return
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ─── Cycle ──────────────────────────────────────────────────────────────────

func TestCycle_SkipsNonAwaitingCalls(t *testing.T) {
	db := newTestDB(t)
	// Backend that fails every request; it must never be consulted.
	client := remote.NewClient("http://127.0.0.1:1", time.Second)

	for _, call := range []domain.Call{
		{PhoneNumber: "+1", Status: domain.StatusCompleted, Type: domain.TypeAIAgent, VapiCallID: "v1"},
		{PhoneNumber: "+2", Status: domain.StatusInProgress, Type: domain.TypeManual},
		{PhoneNumber: "+3", Status: domain.StatusInProgress, Type: domain.TypeAIAgent}, // no external id yet
	} {
		c := call
		c.ScheduledTime = time.Now().UnixMilli()
		id, err := db.InsertCall(c)
		if err != nil {
			t.Fatalf("InsertCall() error: %v", err)
		}
		stored, _ := db.GetCall(id)
		updated, err := Cycle(context.Background(), db, client, stored)
		if err != nil {
			t.Errorf("Cycle(%s) error: %v", c.PhoneNumber, err)
		}
		if updated {
			t.Errorf("Cycle(%s) updated a call that is not awaiting a result", c.PhoneNumber)
		}
	}
}

func TestCycle_MergesTerminalResult(t *testing.T) {
	db := newTestDB(t)
	confirmed := true
	srv := resultBackend(t, map[string]remote.CallStatusResponse{
		"v1": {
			Status:           domain.StatusCompleted,
			VapiCallID:       "v1",
			Transcript:       "Hello, I'd like to book a tee time...",
			BookingConfirmed: &confirmed,
			AISummary:        "Booked Friday 9:00 AM for 2.",
		},
	})

	id := insertAwaiting(t, db, "v1")
	call, _ := db.GetCall(id)

	updated, err := Cycle(context.Background(), db, remote.NewClient(srv.URL, 2*time.Second), call)
	if err != nil {
		t.Fatalf("Cycle() error: %v", err)
	}
	if !updated {
		t.Fatal("Cycle() should report an update")
	}

	got, _ := db.GetCall(id)
	if got.Status != domain.StatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", got.Status)
	}
	if got.AISummary != "Booked Friday 9:00 AM for 2." || got.Transcript == "" {
		t.Errorf("result fields not merged: %+v", got)
	}
	if got.BookingConfirmed == nil || !*got.BookingConfirmed {
		t.Error("BookingConfirmed should be true")
	}
}

func TestCycle_InProgressBodyNotMerged(t *testing.T) {
	db := newTestDB(t)
	srv := resultBackend(t, map[string]remote.CallStatusResponse{
		"v1": {Status: domain.StatusInProgress, VapiCallID: "v1"},
	})

	id := insertAwaiting(t, db, "v1")
	call, _ := db.GetCall(id)

	updated, err := Cycle(context.Background(), db, remote.NewClient(srv.URL, 2*time.Second), call)
	if err != nil {
		t.Fatalf("Cycle() error: %v", err)
	}
	if updated {
		t.Error("an IN_PROGRESS body must not be written")
	}
	got, _ := db.GetCall(id)
	if got.Status != domain.StatusInProgress || got.VapiCallID != "v1" {
		t.Errorf("call mutated: %+v", got)
	}
}

func TestCycle_RefreshFailureFallsThroughToPoll(t *testing.T) {
	db := newTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/refresh") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(remote.CallStatusResponse{Status: domain.StatusFailed, VapiCallID: "v1"})
	}))
	defer srv.Close()

	id := insertAwaiting(t, db, "v1")
	call, _ := db.GetCall(id)

	updated, err := Cycle(context.Background(), db, remote.NewClient(srv.URL, 2*time.Second), call)
	if err != nil {
		t.Fatalf("Cycle() error: %v", err)
	}
	if !updated {
		t.Fatal("poll result should merge despite the refresh failure")
	}
	got, _ := db.GetCall(id)
	if got.Status != domain.StatusFailed {
		t.Errorf("Status = %s, want FAILED", got.Status)
	}
}

func TestCycle_PollFailurePropagates(t *testing.T) {
	db := newTestDB(t)
	srv := resultBackend(t, nil) // every id gets a 502

	id := insertAwaiting(t, db, "v1")
	call, _ := db.GetCall(id)

	if _, err := Cycle(context.Background(), db, remote.NewClient(srv.URL, 2*time.Second), call); err == nil {
		t.Fatal("Cycle() should propagate the poll failure")
	}
	got, _ := db.GetCall(id)
	if got.Status != domain.StatusInProgress {
		t.Errorf("Status = %s, a failed poll must not change state", got.Status)
	}
}

func TestCycle_EmptyResponseIDKeepsStoredID(t *testing.T) {
	db := newTestDB(t)
	srv := resultBackend(t, map[string]remote.CallStatusResponse{
		"v1": {Status: domain.StatusCompleted}, // backend omitted vapi_call_id
	})

	id := insertAwaiting(t, db, "v1")
	call, _ := db.GetCall(id)

	if _, err := Cycle(context.Background(), db, remote.NewClient(srv.URL, 2*time.Second), call); err != nil {
		t.Fatalf("Cycle() error: %v", err)
	}
	got, _ := db.GetCall(id)
	if got.VapiCallID != "v1" {
		t.Errorf("VapiCallID = %q, want the stored id preserved", got.VapiCallID)
	}
}

// ─── Sweep ──────────────────────────────────────────────────────────────────

func TestSweep_UpdatesAllFinished(t *testing.T) {
	db := newTestDB(t)
	results := map[string]remote.CallStatusResponse{}
	var ids []int64
	for i := 0; i < 3; i++ {
		vapiID := fmt.Sprintf("v%d", i)
		ids = append(ids, insertAwaiting(t, db, vapiID))
		results[vapiID] = remote.CallStatusResponse{Status: domain.StatusCompleted, VapiCallID: vapiID}
	}
	srv := resultBackend(t, results)

	n, err := Sweep(context.Background(), db, remote.NewClient(srv.URL, 2*time.Second))
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if n != 3 {
		t.Errorf("updated = %d, want 3", n)
	}
	for _, id := range ids {
		got, _ := db.GetCall(id)
		if got.Status != domain.StatusCompleted {
			t.Errorf("call %d = %s, want COMPLETED", id, got.Status)
		}
	}
}

func TestSweep_OneFailureDoesNotStarveTheRest(t *testing.T) {
	db := newTestDB(t)
	// v0 and v2 finished; v1 is missing from the backend and 502s.
	results := map[string]remote.CallStatusResponse{
		"v0": {Status: domain.StatusCompleted, VapiCallID: "v0"},
		"v2": {Status: domain.StatusFailed, VapiCallID: "v2"},
	}
	id0 := insertAwaiting(t, db, "v0")
	id1 := insertAwaiting(t, db, "v1")
	id2 := insertAwaiting(t, db, "v2")
	srv := resultBackend(t, results)

	n, err := Sweep(context.Background(), db, remote.NewClient(srv.URL, 2*time.Second))
	if err != nil {
		t.Fatalf("Sweep() error: %v (per-call failures are swallowed)", err)
	}
	if n != 2 {
		t.Errorf("updated = %d, want 2", n)
	}

	if got, _ := db.GetCall(id0); got.Status != domain.StatusCompleted {
		t.Errorf("call %d = %s, want COMPLETED", id0, got.Status)
	}
	if got, _ := db.GetCall(id1); got.Status != domain.StatusInProgress {
		t.Errorf("call %d = %s, the failing call must stay IN_PROGRESS for the next sweep", id1, got.Status)
	}
	if got, _ := db.GetCall(id2); got.Status != domain.StatusFailed {
		t.Errorf("call %d = %s, want FAILED", id2, got.Status)
	}
}

func TestSweep_NothingAwaiting(t *testing.T) {
	db := newTestDB(t)
	n, err := Sweep(context.Background(), db, remote.NewClient("http://127.0.0.1:1", time.Second))
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if n != 0 {
		t.Errorf("updated = %d, want 0", n)
	}
}

// ─── Poller ─────────────────────────────────────────────────────────────────

func TestWatch_TerminalCallReturnsImmediately(t *testing.T) {
	db := newTestDB(t)
	id, err := db.InsertCall(domain.Call{
		PhoneNumber:   "+14155550100",
		ScheduledTime: time.Now().UnixMilli(),
		Status:        domain.StatusCompleted,
		Type:          domain.TypeManual,
	})
	if err != nil {
		t.Fatalf("InsertCall() error: %v", err)
	}

	p := NewPoller(db, remote.NewClient("http://127.0.0.1:1", time.Second), 10*time.Millisecond)
	call, err := p.Watch(context.Background(), id)
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	if call.Status != domain.StatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", call.Status)
	}
}

func TestWatch_PollsUntilTerminal(t *testing.T) {
	db := newTestDB(t)

	// First two polls report IN_PROGRESS, then the call completes.
	var polls atomic64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/refresh") {
			json.NewEncoder(w).Encode(remote.CallStatusResponse{Status: domain.StatusInProgress})
			return
		}
		if polls.inc() < 3 {
			json.NewEncoder(w).Encode(remote.CallStatusResponse{Status: domain.StatusInProgress, VapiCallID: "v1"})
			return
		}
		json.NewEncoder(w).Encode(remote.CallStatusResponse{Status: domain.StatusCompleted, VapiCallID: "v1", AISummary: "Booked."})
	}))
	defer srv.Close()

	id := insertAwaiting(t, db, "v1")
	p := NewPoller(db, remote.NewClient(srv.URL, 2*time.Second), 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	call, err := p.Watch(ctx, id)
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	if call.Status != domain.StatusCompleted || call.AISummary != "Booked." {
		t.Errorf("call = %+v, want the merged terminal result", call)
	}
}

func TestWatch_ContextCancelStopsPolling(t *testing.T) {
	db := newTestDB(t)
	srv := resultBackend(t, map[string]remote.CallStatusResponse{
		"v1": {Status: domain.StatusInProgress, VapiCallID: "v1"},
	})

	id := insertAwaiting(t, db, "v1")
	p := NewPoller(db, remote.NewClient(srv.URL, 2*time.Second), 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	call, err := p.Watch(ctx, id)
	if err != context.DeadlineExceeded {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
	if call == nil || call.Status != domain.StatusInProgress {
		t.Errorf("Watch() should return the last seen call, got %+v", call)
	}
}

// atomic64 is a tiny counter for handler closures.
type atomic64 struct{ n int64 }

func (a *atomic64) inc() int64 { a.n++; return a.n }
