package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/teeline/teeline/internal/domain"
)

// ─── Call Repository ────────────────────────────────────────────────────────

const callColumns = `id, phone_number, contact_name, scheduled_time, status, created_at,
	call_type, vapi_call_id, booking_date, booking_time, num_players, player_name,
	transcript, booking_confirmed, ai_summary`

// InsertCall persists a new call and returns its assigned id.
// CreatedAt is stamped here; the caller supplies everything else.
func (d *DB) InsertCall(c domain.Call) (int64, error) {
	now := time.Now().UnixMilli()
	result, err := d.db.Exec(
		`INSERT INTO calls (phone_number, contact_name, scheduled_time, status, created_at,
		 call_type, vapi_call_id, booking_date, booking_time, num_players, player_name,
		 transcript, booking_confirmed, ai_summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.PhoneNumber, nullStr(c.ContactName), c.ScheduledTime, string(c.Status), now,
		string(c.Type), nullStr(c.VapiCallID), nullStr(c.BookingDate), nullStr(c.BookingTime),
		nullInt(c.NumPlayers), nullStr(c.PlayerName),
		nullStr(c.Transcript), nullBool(c.BookingConfirmed), nullStr(c.AISummary),
	)
	if err != nil {
		return 0, fmt.Errorf("insert call: %w", err)
	}
	return result.LastInsertId()
}

// GetCall retrieves a call by id. Returns domain.ErrCallNotFound if absent.
func (d *DB) GetCall(id int64) (*domain.Call, error) {
	row := d.db.QueryRow(`SELECT `+callColumns+` FROM calls WHERE id = ?`, id)
	c, err := scanCall(row)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCallNotFound
	}
	return c, nil
}

// ListCalls returns every call ordered by scheduled time descending.
// The dashboard groups by recency, so the ordering is part of the contract.
func (d *DB) ListCalls() ([]domain.Call, error) {
	rows, err := d.db.Query(`SELECT ` + callColumns + ` FROM calls ORDER BY scheduled_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []domain.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

// ListAwaitingResult returns AI-agent calls the remote service accepted but
// has not finished — the working set for sweep reconciliation.
func (d *DB) ListAwaitingResult() ([]domain.Call, error) {
	rows, err := d.db.Query(
		`SELECT `+callColumns+` FROM calls
		 WHERE call_type = ? AND status = ? AND vapi_call_id IS NOT NULL
		 ORDER BY scheduled_time DESC`,
		string(domain.TypeAIAgent), string(domain.StatusInProgress),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []domain.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

// UpdateCallStatus sets a call's status. Last write wins; concurrent writers
// are accepted by design. Returns domain.ErrCallNotFound if the id is absent.
func (d *DB) UpdateCallStatus(id int64, status domain.CallStatus) error {
	result, err := d.db.Exec(`UPDATE calls SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrCallNotFound
	}
	return nil
}

// UpdateCallResult overwrites the status and every remote result field.
// There are no partial-field semantics: callers pass the intended final value
// for each field on every write, nil/empty included.
func (d *DB) UpdateCallResult(id int64, status domain.CallStatus, transcript string, bookingConfirmed *bool, aiSummary, vapiCallID string) error {
	result, err := d.db.Exec(
		`UPDATE calls SET status = ?, transcript = ?, booking_confirmed = ?,
		 ai_summary = ?, vapi_call_id = ? WHERE id = ?`,
		string(status), nullStr(transcript), nullBool(bookingConfirmed),
		nullStr(aiSummary), nullStr(vapiCallID), id,
	)
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrCallNotFound
	}
	return nil
}

// DeleteCall permanently removes a call. Deleting a missing id is a no-op.
func (d *DB) DeleteCall(id int64) error {
	_, err := d.db.Exec(`DELETE FROM calls WHERE id = ?`, id)
	return err
}

func scanCall(s scanner) (*domain.Call, error) {
	var c domain.Call
	var contactName, vapiCallID, bookingDate, bookingTime, playerName sql.NullString
	var transcript, aiSummary sql.NullString
	var numPlayers sql.NullInt64
	var bookingConfirmed sql.NullBool

	err := s.Scan(&c.ID, &c.PhoneNumber, &contactName, &c.ScheduledTime, &c.Status, &c.CreatedAt,
		&c.Type, &vapiCallID, &bookingDate, &bookingTime, &numPlayers, &playerName,
		&transcript, &bookingConfirmed, &aiSummary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan call: %w", err)
	}

	c.ContactName = contactName.String
	c.VapiCallID = vapiCallID.String
	c.BookingDate = bookingDate.String
	c.BookingTime = bookingTime.String
	c.PlayerName = playerName.String
	c.Transcript = transcript.String
	c.AISummary = aiSummary.String
	if numPlayers.Valid {
		c.NumPlayers = int(numPlayers.Int64)
	}
	if bookingConfirmed.Valid {
		b := bookingConfirmed.Bool
		c.BookingConfirmed = &b
	}
	return &c, nil
}
