package loyalty

import "errors"

var (
	ErrInvalidAmount      = errors.New("amount must be a non-zero number of points")
	ErrUnknownReason      = errors.New("unknown ledger reason")
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
	ErrDuplicateEntry     = errors.New("ledger entry already recorded for this event")
	ErrProfileNotFound    = errors.New("profile not found")
	// ErrLedgerDrift means the cached balance no longer equals the ledger sum.
	// It is never corrected automatically.
	ErrLedgerDrift = errors.New("cached balance does not match ledger")
)
