// Package trigger schedules one-shot, time-based alerts bound to call tasks
// and reacts when they fire. Triggers live in the store, not in memory, so a
// process restart loses nothing and the fire path can run in a cold process
// that reconstructs its own dependencies.
package trigger

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/teeline/teeline/internal/domain"
	"github.com/teeline/teeline/internal/infra/metrics"
	"github.com/teeline/teeline/internal/infra/remote"
	"github.com/teeline/teeline/internal/infra/sqlite"
)

// Handler applies the fire-time behavior for a trigger event. It owns its
// store and client handles: the platform may invoke it with no prior
// in-memory state, so it never reaches back into a live coordinator.
type Handler struct {
	db     *sqlite.DB
	remote *remote.Client
	dialer domain.Dialer
}

// NewHandler creates a trigger event handler.
func NewHandler(db *sqlite.DB, client *remote.Client, dialer domain.Dialer) *Handler {
	return &Handler{db: db, remote: client, dialer: dialer}
}

// HandleEvent applies one trigger event:
//
//	AI_AGENT + delivered/pressed → place the AI call, exactly once
//	MANUAL   + delivered         → COMPLETED (happy-path assumption)
//	MANUAL   + pressed           → dial, then COMPLETED or FAILED
//	any      + dismissed         → CANCELLED
//
// The call must still be SCHEDULED; a call that already moved on (cancelled,
// fired concurrently, reconciled) is left untouched. The trigger row is
// removed in every case so the alert cannot fire twice.
func (h *Handler) HandleEvent(ctx context.Context, action domain.TriggerAction, trig domain.Trigger) error {
	metrics.TriggersFired.WithLabelValues(string(action)).Inc()
	defer func() {
		if err := h.db.DeleteTrigger(trig.CallID); err != nil {
			log.Printf("[trigger] delete trigger %d: %v", trig.CallID, err)
		}
	}()

	call, err := h.db.GetCall(trig.CallID)
	if err == domain.ErrCallNotFound {
		return nil // call deleted since scheduling; nothing to do
	}
	if err != nil {
		return err
	}
	if call.Status != domain.StatusScheduled {
		log.Printf("[trigger] call %d is %s, ignoring %s event", call.ID, call.Status, action)
		return nil
	}

	if action == domain.ActionDismissed {
		return h.db.UpdateCallStatus(call.ID, domain.StatusCancelled)
	}

	if trig.CallType == domain.TypeAIAgent {
		return h.startAICall(ctx, trig)
	}

	if action == domain.ActionPressed {
		if err := h.dialer.Dial(ctx, trig.PhoneNumber); err != nil {
			log.Printf("[trigger] dial for call %d failed: %v", call.ID, err)
			metrics.CallsFailed.Inc()
			return h.db.UpdateCallStatus(call.ID, domain.StatusFailed)
		}
	}
	metrics.CallsCompleted.Inc()
	return h.db.UpdateCallStatus(call.ID, domain.StatusCompleted)
}

// startAICall performs the delegated call placement at fire time, with no
// further user interaction: IN_PROGRESS with the external id on success,
// FAILED with a descriptive summary otherwise.
func (h *Handler) startAICall(ctx context.Context, trig domain.Trigger) error {
	resp, err := h.remote.CreateAIAgentCall(ctx, remote.AIAgentCallRequest{
		PhoneNumber: trig.PhoneNumber,
		BookingDate: trig.BookingDate,
		BookingTime: trig.BookingTime,
		NumPlayers:  trig.NumPlayers,
		PlayerName:  trig.PlayerName,
	})
	if err != nil {
		log.Printf("[trigger] AI call placement for call %d failed: %v", trig.CallID, err)
		notConfirmed := false
		metrics.CallsFailed.Inc()
		return h.db.UpdateCallResult(trig.CallID, domain.StatusFailed,
			"", &notConfirmed, "Failed to start AI call: "+err.Error(), "")
	}
	return h.db.UpdateCallResult(trig.CallID, domain.StatusInProgress,
		"", nil, "", resp.VapiCallID)
}

// ─── Scheduling ─────────────────────────────────────────────────────────────

// Service schedules and cancels triggers, and runs the due-trigger scan loop
// that stands in for the platform's alarm delivery.
type Service struct {
	db           *sqlite.DB
	handler      *Handler
	scanInterval time.Duration
}

// NewService creates a trigger service.
func NewService(db *sqlite.DB, handler *Handler, scanInterval time.Duration) *Service {
	if scanInterval <= 0 {
		scanInterval = time.Second
	}
	return &Service{db: db, handler: handler, scanInterval: scanInterval}
}

// ScheduleManualCall registers an alert that fires at whenMillis for a
// manual call.
func (s *Service) ScheduleManualCall(id int64, phoneNumber, contactName string, whenMillis int64) error {
	return s.db.UpsertTrigger(domain.Trigger{
		CallID:         id,
		NotificationID: "call-" + uuid.New().String(),
		FireAt:         whenMillis,
		PhoneNumber:    phoneNumber,
		ContactName:    contactName,
		CallType:       domain.TypeManual,
	})
}

// ScheduleAIAgentCall registers an alert that places an AI call at
// whenMillis, carrying the full booking intent in the payload.
func (s *Service) ScheduleAIAgentCall(id int64, phoneNumber, bookingDate, bookingTime string, numPlayers int, playerName string, whenMillis int64) error {
	return s.db.UpsertTrigger(domain.Trigger{
		CallID:         id,
		NotificationID: "ai-call-" + uuid.New().String(),
		FireAt:         whenMillis,
		PhoneNumber:    phoneNumber,
		CallType:       domain.TypeAIAgent,
		BookingDate:    bookingDate,
		BookingTime:    bookingTime,
		NumPlayers:     numPlayers,
		PlayerName:     playerName,
	})
}

// Cancel removes the pending trigger for a call. Idempotent.
func (s *Service) Cancel(id int64) error {
	return s.db.DeleteTrigger(id)
}

// Run scans for due triggers until ctx is cancelled. Call in a goroutine.
func (s *Service) Run(ctx context.Context) {
	// Fire anything that came due while the process was down.
	s.scan(ctx)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *Service) scan(ctx context.Context) {
	due, err := s.db.DueTriggers(time.Now().UnixMilli())
	if err != nil {
		log.Printf("[trigger] scan: %v", err)
		return
	}
	for _, t := range due {
		if err := s.handler.HandleEvent(ctx, domain.ActionDelivered, t); err != nil {
			log.Printf("[trigger] fire call %d: %v", t.CallID, err)
		}
	}
}
