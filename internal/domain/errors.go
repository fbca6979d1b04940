package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Store errors
	ErrCallNotFound = errors.New("call not found")

	// Lifecycle errors
	ErrScheduleInPast = errors.New("scheduled time must be in the future")
	ErrNotCancellable = errors.New("only scheduled calls can be cancelled")
	ErrNoExternalID   = errors.New("call has no external call id to poll")

	// Dial errors
	ErrDialFailed = errors.New("device dial failed")
)
