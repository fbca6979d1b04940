// Package domain holds the core call-tracking types.
// A Call is the persisted record of an intended or completed phone call:
// create → (schedule) → place → reconcile → terminal.
package domain

import "time"

// CallStatus tracks the call lifecycle.
type CallStatus string

const (
	StatusScheduled  CallStatus = "SCHEDULED"
	StatusInProgress CallStatus = "IN_PROGRESS"
	StatusCompleted  CallStatus = "COMPLETED"
	StatusFailed     CallStatus = "FAILED"
	StatusCancelled  CallStatus = "CANCELLED"
)

// CallType distinguishes user-dialed calls from delegated AI-agent calls.
type CallType string

const (
	TypeManual  CallType = "MANUAL"
	TypeAIAgent CallType = "AI_AGENT"
)

// Call is a single call task. Timestamps are epoch milliseconds, matching
// the on-disk representation and the backend wire format.
type Call struct {
	ID            int64      `json:"id"`
	PhoneNumber   string     `json:"phone_number"`
	ContactName   string     `json:"contact_name,omitempty"`
	ScheduledTime int64      `json:"scheduled_time"`
	CreatedAt     int64      `json:"created_at"`
	Status        CallStatus `json:"status"`
	Type          CallType   `json:"call_type"`

	// Set only once the remote agent accepted the call request.
	VapiCallID string `json:"vapi_call_id,omitempty"`

	// Booking intent, immutable after creation. AI-agent calls only.
	BookingDate string `json:"booking_date,omitempty"`
	BookingTime string `json:"booking_time,omitempty"`
	NumPlayers  int    `json:"num_players,omitempty"`
	PlayerName  string `json:"player_name,omitempty"`

	// Call outcome, written by reconciliation once the remote call ends.
	Transcript       string `json:"transcript,omitempty"`
	BookingConfirmed *bool  `json:"booking_confirmed,omitempty"`
	AISummary        string `json:"ai_summary,omitempty"`
}

// IsTerminal returns true once the call reached a final state.
// Terminal calls are never transitioned again by automated paths.
func (c *Call) IsTerminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusFailed || c.Status == StatusCancelled
}

// AwaitingResult reports whether reconciliation should poll this call:
// an AI-agent call the remote service accepted but has not finished.
func (c *Call) AwaitingResult() bool {
	return c.Type == TypeAIAgent && c.Status == StatusInProgress && c.VapiCallID != ""
}

// ScheduledAt returns the scheduled time as a time.Time.
func (c *Call) ScheduledAt() time.Time {
	return time.UnixMilli(c.ScheduledTime)
}

// TerminalStatus reports whether a status string (typically from the wire)
// names a final state. IN_PROGRESS poll bodies are ignored by reconciliation.
func TerminalStatus(s CallStatus) bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}
