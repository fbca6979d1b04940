package domain

import "context"

// TriggerAction is what the platform reports when a scheduled alert fires.
type TriggerAction string

const (
	ActionDelivered TriggerAction = "delivered"
	ActionPressed   TriggerAction = "pressed"
	ActionDismissed TriggerAction = "dismissed"
)

// Trigger is a one-shot, time-based alert bound to a call. The payload
// columns carry everything the fire handler needs, because the handler runs
// in a cold process with no access to the state that scheduled the trigger.
type Trigger struct {
	CallID         int64    `json:"call_id"`
	NotificationID string   `json:"notification_id"`
	FireAt         int64    `json:"fire_at"` // epoch milliseconds
	PhoneNumber    string   `json:"phone_number"`
	ContactName    string   `json:"contact_name,omitempty"`
	CallType       CallType `json:"call_type"`
	BookingDate    string   `json:"booking_date,omitempty"`
	BookingTime    string   `json:"booking_time,omitempty"`
	NumPlayers     int      `json:"num_players,omitempty"`
	PlayerName     string   `json:"player_name,omitempty"`
}

// Dialer places a manual outbound call on the device.
type Dialer interface {
	Dial(ctx context.Context, number string) error
}
