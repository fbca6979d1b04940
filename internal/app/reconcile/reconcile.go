// Package reconcile pulls authoritative call status from the backend and
// merges it into the local store. Two entry points: a sweep over every
// in-progress AI call (app resume, dashboard load) and an active poller for
// one call (detail view).
package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/teeline/teeline/internal/domain"
	"github.com/teeline/teeline/internal/infra/metrics"
	"github.com/teeline/teeline/internal/infra/remote"
	"github.com/teeline/teeline/internal/infra/sqlite"
)

// Cycle runs one refresh+poll+merge pass for a single call. A refresh
// failure falls through to the poll (the backend may simply not have synced
// with the voice provider yet); a poll failure propagates. The merge only
// happens when the backend reports a terminal status — IN_PROGRESS bodies
// carry no result data worth writing.
//
// Returns true when the stored call was updated.
func Cycle(ctx context.Context, db *sqlite.DB, client *remote.Client, call *domain.Call) (bool, error) {
	if !call.AwaitingResult() {
		return false, nil
	}

	if _, err := client.Refresh(ctx, call.VapiCallID); err != nil {
		log.Printf("[reconcile] refresh call %d: %v", call.ID, err)
	}

	resp, err := client.PollStatus(ctx, call.VapiCallID)
	if err != nil {
		return false, err
	}
	if !domain.TerminalStatus(resp.Status) {
		return false, nil
	}

	vapiID := resp.VapiCallID
	if vapiID == "" {
		vapiID = call.VapiCallID
	}
	if err := db.UpdateCallResult(call.ID, resp.Status,
		resp.Transcript, resp.BookingConfirmed, resp.AISummary, vapiID); err != nil {
		return false, err
	}

	metrics.ReconcileUpdates.Inc()
	switch resp.Status {
	case domain.StatusCompleted:
		metrics.CallsCompleted.Inc()
	case domain.StatusFailed:
		metrics.CallsFailed.Inc()
	}
	return true, nil
}

// Sweep reconciles every AI call awaiting a result. Per-call failures are
// swallowed and retried on the next sweep — one unreachable call must not
// starve the rest. Only a store read failure aborts the sweep.
func Sweep(ctx context.Context, db *sqlite.DB, client *remote.Client) (int, error) {
	metrics.ReconcileSweeps.Inc()

	calls, err := db.ListAwaitingResult()
	if err != nil {
		return 0, err
	}
	metrics.CallsInProgress.Set(float64(len(calls)))

	updated := 0
	for i := range calls {
		ok, err := Cycle(ctx, db, client, &calls[i])
		if err != nil {
			metrics.ReconcileFailures.Inc()
			log.Printf("[reconcile] call %d: %v (will retry next sweep)", calls[i].ID, err)
			continue
		}
		if ok {
			updated++
		}
	}
	metrics.CallsInProgress.Sub(float64(updated))
	return updated, nil
}

// Poller repeatedly reconciles one call on a wall-clock interval while a
// detail view is open.
type Poller struct {
	db       *sqlite.DB
	client   *remote.Client
	interval time.Duration
}

// NewPoller creates an active poller. interval defaults to 5 seconds.
func NewPoller(db *sqlite.DB, client *remote.Client, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{db: db, client: client, interval: interval}
}

// Watch polls the call until it reaches a terminal state or ctx ends, then
// returns the stored call. Transient backend failures are swallowed and
// retried on the next tick, indefinitely — there is no terminal state to
// fall back to until the backend confirms one.
func (p *Poller) Watch(ctx context.Context, callID int64) (*domain.Call, error) {
	tick := func() (*domain.Call, bool, error) {
		metrics.PollTicks.Inc()
		call, err := p.db.GetCall(callID)
		if err != nil {
			return nil, false, err
		}
		if call.IsTerminal() {
			return call, true, nil
		}
		if !call.AwaitingResult() {
			// Manual or not yet accepted remotely; nothing to poll.
			return call, true, nil
		}
		if _, err := Cycle(ctx, p.db, p.client, call); err != nil {
			metrics.ReconcileFailures.Inc()
			log.Printf("[reconcile] poll call %d: %v (will retry)", callID, err)
		}
		call, err = p.db.GetCall(callID)
		if err != nil {
			return nil, false, err
		}
		return call, call.IsTerminal(), nil
	}

	call, done, err := tick()
	if err != nil || done {
		return call, err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return call, ctx.Err()
		case <-ticker.C:
			call, done, err = tick()
			if err != nil || done {
				return call, err
			}
		}
	}
}
