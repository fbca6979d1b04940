// Package sqlite provides SQLite-based persistent storage for teeline.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/calls.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "calls.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
//
// The base table matches the first release (manual calls only). Every column
// added since then is applied as an additive ALTER so that a database created
// by any earlier version upgrades in place without losing rows.
func (d *DB) migrate() error {
	base := []string{
		`CREATE TABLE IF NOT EXISTS calls (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			phone_number   TEXT NOT NULL,
			contact_name   TEXT,
			scheduled_time INTEGER NOT NULL,
			status         TEXT NOT NULL DEFAULT 'SCHEDULED',
			created_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_scheduled ON calls(scheduled_time)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_status ON calls(status)`,

		// Pending device triggers, keyed by call id. Kept durable so a
		// restarted process still fires alerts scheduled before it died.
		`CREATE TABLE IF NOT EXISTS triggers (
			call_id         INTEGER PRIMARY KEY,
			notification_id TEXT NOT NULL,
			fire_at         INTEGER NOT NULL,
			phone_number    TEXT NOT NULL,
			contact_name    TEXT,
			call_type       TEXT NOT NULL,
			booking_date    TEXT,
			booking_time    TEXT,
			num_players     INTEGER,
			player_name     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_triggers_fire ON triggers(fire_at)`,
	}

	for _, m := range base {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	// Additive column migrations. "duplicate column name" means the column
	// already exists (fresh databases, or a prior run) and is a no-op.
	alters := []string{
		`ALTER TABLE calls ADD COLUMN call_type TEXT NOT NULL DEFAULT 'MANUAL'`,
		`ALTER TABLE calls ADD COLUMN vapi_call_id TEXT`,
		`ALTER TABLE calls ADD COLUMN booking_date TEXT`,
		`ALTER TABLE calls ADD COLUMN booking_time TEXT`,
		`ALTER TABLE calls ADD COLUMN num_players INTEGER`,
		`ALTER TABLE calls ADD COLUMN player_name TEXT`,
		`ALTER TABLE calls ADD COLUMN transcript TEXT`,
		`ALTER TABLE calls ADD COLUMN booking_confirmed INTEGER`,
		`ALTER TABLE calls ADD COLUMN ai_summary TEXT`,
	}

	for _, m := range alters {
		if _, err := d.db.Exec(m); err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
