package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Ledger errors
	ErrLockConflict   = errors.New("resource lock held by another operation")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidAmount  = errors.New("amount is not a representable finite value")
	ErrReplayDetected = errors.New("operation nonce already consumed")
	ErrInvalidKind    = errors.New("unknown balance kind")

	// Store errors
	ErrMissionNotFound = errors.New("mission not found")
	ErrItemNotFound    = errors.New("store item not found")
)
