// Package coordinator orchestrates the call-task lifecycle: creation,
// scheduling, cancellation, deletion, and the manual-refresh escape hatch.
// The store is the sole source of truth; the coordinator writes to it first
// and reconciles remote outcomes back into it.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/teeline/teeline/internal/app/reconcile"
	"github.com/teeline/teeline/internal/app/trigger"
	"github.com/teeline/teeline/internal/domain"
	"github.com/teeline/teeline/internal/infra/metrics"
	"github.com/teeline/teeline/internal/infra/remote"
	"github.com/teeline/teeline/internal/infra/sqlite"
)

// Contact labels applied to AI bookings when the user picked no contact.
const (
	aiAgentContact     = "Stanford Golf Course"
	aiScheduledContact = "AI Scheduled Call"
)

// Coordinator drives call-task state transitions.
type Coordinator struct {
	store    *sqlite.DB
	remote   *remote.Client
	triggers *trigger.Service
	dialer   domain.Dialer
}

// New creates a coordinator over an explicitly constructed store, client,
// trigger service, and dialer.
func New(store *sqlite.DB, client *remote.Client, triggers *trigger.Service, dialer domain.Dialer) *Coordinator {
	return &Coordinator{store: store, remote: client, triggers: triggers, dialer: dialer}
}

// AddCall creates an immediate manual call. The record is written as
// COMPLETED up front — the dial is assumed to proceed — and demoted to
// FAILED if the device dial errors. The record is also mirrored to the
// backend, best effort.
func (c *Coordinator) AddCall(ctx context.Context, phoneNumber, contactName string) (int64, error) {
	now := time.Now().UnixMilli()
	id, err := c.store.InsertCall(domain.Call{
		PhoneNumber:   phoneNumber,
		ContactName:   contactName,
		ScheduledTime: now,
		Status:        domain.StatusCompleted,
		Type:          domain.TypeManual,
	})
	if err != nil {
		return 0, err
	}
	metrics.CallsCreated.WithLabelValues(string(domain.TypeManual)).Inc()

	if dialErr := c.dialer.Dial(ctx, phoneNumber); dialErr != nil {
		metrics.CallsFailed.Inc()
		if err := c.store.UpdateCallStatus(id, domain.StatusFailed); err != nil {
			return id, err
		}
		return id, dialErr
	}
	metrics.CallsCompleted.Inc()

	// Backend mirror is optional; the local row is already authoritative.
	if err := c.remote.SyncCall(ctx, remote.SyncPayload{
		PhoneNumber:   phoneNumber,
		ContactName:   contactName,
		ScheduledTime: now,
		Status:        string(domain.StatusCompleted),
	}); err != nil {
		log.Printf("[coordinator] backend sync for call %d: %v", id, err)
	}
	return id, nil
}

// AddScheduledCall creates a manual call for a future time and registers its
// trigger. Rejected outright — no row written — unless atMillis is strictly
// in the future.
func (c *Coordinator) AddScheduledCall(ctx context.Context, phoneNumber, contactName string, atMillis int64) (int64, error) {
	if atMillis <= time.Now().UnixMilli() {
		return 0, domain.ErrScheduleInPast
	}

	id, err := c.store.InsertCall(domain.Call{
		PhoneNumber:   phoneNumber,
		ContactName:   contactName,
		ScheduledTime: atMillis,
		Status:        domain.StatusScheduled,
		Type:          domain.TypeManual,
	})
	if err != nil {
		return 0, err
	}
	metrics.CallsCreated.WithLabelValues(string(domain.TypeManual)).Inc()

	if err := c.triggers.ScheduleManualCall(id, phoneNumber, contactName, atMillis); err != nil {
		return id, fmt.Errorf("schedule trigger: %w", err)
	}
	return id, nil
}

// AddAIAgentCall creates and immediately places a delegated AI call. The row
// is written first so a record exists even when the backend rejects the
// placement; on failure the row is marked FAILED with a readable summary and
// the placement error is returned for the caller to surface.
func (c *Coordinator) AddAIAgentCall(ctx context.Context, phoneNumber, bookingDate, bookingTime string, numPlayers int, playerName string) (int64, error) {
	now := time.Now().UnixMilli()
	id, err := c.store.InsertCall(domain.Call{
		PhoneNumber:   phoneNumber,
		ContactName:   aiAgentContact,
		ScheduledTime: now,
		Status:        domain.StatusInProgress,
		Type:          domain.TypeAIAgent,
		BookingDate:   bookingDate,
		BookingTime:   bookingTime,
		NumPlayers:    numPlayers,
		PlayerName:    playerName,
	})
	if err != nil {
		return 0, err
	}
	metrics.CallsCreated.WithLabelValues(string(domain.TypeAIAgent)).Inc()

	resp, err := c.remote.CreateAIAgentCall(ctx, remote.AIAgentCallRequest{
		PhoneNumber: phoneNumber,
		BookingDate: bookingDate,
		BookingTime: bookingTime,
		NumPlayers:  numPlayers,
		PlayerName:  playerName,
	})
	if err != nil {
		notConfirmed := false
		metrics.CallsFailed.Inc()
		if updateErr := c.store.UpdateCallResult(id, domain.StatusFailed,
			"", &notConfirmed, "Failed to start AI call: "+err.Error(), ""); updateErr != nil {
			return id, updateErr
		}
		return id, err
	}

	if err := c.store.UpdateCallResult(id, domain.StatusInProgress,
		"", nil, "", resp.VapiCallID); err != nil {
		return id, err
	}
	metrics.CallsInProgress.Inc()
	return id, nil
}

// AddScheduledAIAgentCall creates an AI call for a future time. The remote
// placement happens at fire time, not now; only the trigger carries the
// booking intent forward.
func (c *Coordinator) AddScheduledAIAgentCall(ctx context.Context, phoneNumber, bookingDate, bookingTime string, numPlayers int, playerName string, atMillis int64) (int64, error) {
	if atMillis <= time.Now().UnixMilli() {
		return 0, domain.ErrScheduleInPast
	}

	id, err := c.store.InsertCall(domain.Call{
		PhoneNumber:   phoneNumber,
		ContactName:   aiScheduledContact,
		ScheduledTime: atMillis,
		Status:        domain.StatusScheduled,
		Type:          domain.TypeAIAgent,
		BookingDate:   bookingDate,
		BookingTime:   bookingTime,
		NumPlayers:    numPlayers,
		PlayerName:    playerName,
	})
	if err != nil {
		return 0, err
	}
	metrics.CallsCreated.WithLabelValues(string(domain.TypeAIAgent)).Inc()

	if err := c.triggers.ScheduleAIAgentCall(id, phoneNumber, bookingDate, bookingTime, numPlayers, playerName, atMillis); err != nil {
		return id, fmt.Errorf("schedule trigger: %w", err)
	}
	return id, nil
}

// Cancel moves a SCHEDULED call to CANCELLED and removes its pending
// trigger. Any other state is rejected: in-flight and terminal calls are not
// cancellable.
func (c *Coordinator) Cancel(ctx context.Context, id int64) error {
	call, err := c.store.GetCall(id)
	if err != nil {
		return err
	}
	if call.Status != domain.StatusScheduled {
		return domain.ErrNotCancellable
	}
	if err := c.triggers.Cancel(id); err != nil {
		return fmt.Errorf("cancel trigger: %w", err)
	}
	return c.store.UpdateCallStatus(id, domain.StatusCancelled)
}

// Delete permanently removes a call from the store. Valid in any state and
// idempotent. It does not cancel a pending device trigger — the cancel flow
// does that; callers wanting both cancel first.
func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	return c.store.DeleteCall(id)
}

// RefreshCall is the user-facing escape hatch for a call stuck
// IN_PROGRESS: one reconcile cycle whose errors surface instead of being
// swallowed. Terminal calls are returned as-is.
func (c *Coordinator) RefreshCall(ctx context.Context, id int64) (*domain.Call, error) {
	call, err := c.store.GetCall(id)
	if err != nil {
		return nil, err
	}
	if call.IsTerminal() {
		return call, nil
	}
	if call.Type != domain.TypeAIAgent || call.VapiCallID == "" {
		return nil, domain.ErrNoExternalID
	}

	updated, err := reconcile.Cycle(ctx, c.store, c.remote, call)
	if err != nil {
		return nil, err
	}
	if !updated {
		return call, nil
	}
	return c.store.GetCall(id)
}
