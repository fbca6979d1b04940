package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/teeline/teeline/internal/domain"
)

// ─── Trigger Registry ───────────────────────────────────────────────────────
// One pending trigger per call at most. Re-scheduling replaces the row.

// UpsertTrigger registers (or replaces) the pending trigger for a call.
func (d *DB) UpsertTrigger(t domain.Trigger) error {
	_, err := d.db.Exec(
		`INSERT INTO triggers (call_id, notification_id, fire_at, phone_number, contact_name,
		 call_type, booking_date, booking_time, num_players, player_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(call_id) DO UPDATE SET
			notification_id=excluded.notification_id,
			fire_at=excluded.fire_at,
			phone_number=excluded.phone_number,
			contact_name=excluded.contact_name,
			call_type=excluded.call_type,
			booking_date=excluded.booking_date,
			booking_time=excluded.booking_time,
			num_players=excluded.num_players,
			player_name=excluded.player_name`,
		t.CallID, t.NotificationID, t.FireAt, t.PhoneNumber, nullStr(t.ContactName),
		string(t.CallType), nullStr(t.BookingDate), nullStr(t.BookingTime),
		nullInt(t.NumPlayers), nullStr(t.PlayerName),
	)
	return err
}

// GetTrigger returns the pending trigger for a call, or nil if none.
func (d *DB) GetTrigger(callID int64) (*domain.Trigger, error) {
	row := d.db.QueryRow(
		`SELECT call_id, notification_id, fire_at, phone_number, contact_name,
		 call_type, booking_date, booking_time, num_players, player_name
		 FROM triggers WHERE call_id = ?`, callID,
	)
	return scanTrigger(row)
}

// DueTriggers returns triggers whose fire time has passed, oldest first.
func (d *DB) DueTriggers(nowMillis int64) ([]domain.Trigger, error) {
	rows, err := d.db.Query(
		`SELECT call_id, notification_id, fire_at, phone_number, contact_name,
		 call_type, booking_date, booking_time, num_players, player_name
		 FROM triggers WHERE fire_at <= ? ORDER BY fire_at ASC`, nowMillis,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []domain.Trigger
	for rows.Next() {
		t, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, *t)
	}
	return triggers, rows.Err()
}

// DeleteTrigger removes the pending trigger for a call. Idempotent.
func (d *DB) DeleteTrigger(callID int64) error {
	_, err := d.db.Exec(`DELETE FROM triggers WHERE call_id = ?`, callID)
	return err
}

func scanTrigger(s scanner) (*domain.Trigger, error) {
	var t domain.Trigger
	var contactName, bookingDate, bookingTime, playerName sql.NullString
	var numPlayers sql.NullInt64

	err := s.Scan(&t.CallID, &t.NotificationID, &t.FireAt, &t.PhoneNumber, &contactName,
		&t.CallType, &bookingDate, &bookingTime, &numPlayers, &playerName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan trigger: %w", err)
	}

	t.ContactName = contactName.String
	t.BookingDate = bookingDate.String
	t.BookingTime = bookingTime.String
	t.PlayerName = playerName.String
	if numPlayers.Valid {
		t.NumPlayers = int(numPlayers.Int64)
	}
	return &t, nil
}
