// Package store defines the persistence contracts the loyalty core depends on.
// The core never talks to a database directly; it is handed a Stores value,
// usually bound to a single transaction by a TxRunner.
package store

import (
	"context"
	"errors"

	"github.com/freightlink/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a write violates a unique constraint
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInsufficientWalletBalance is returned when a wallet adjustment would go negative
	ErrInsufficientWalletBalance = errors.New("insufficient wallet balance")
)

// ProfileStore holds the cached point balance and referral code per user
type ProfileStore interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	// ReadBalance returns the cached balance. Inside a transaction the profile
	// row stays locked until commit.
	ReadBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	WriteBalance(ctx context.Context, userID uuid.UUID, balance int64) error
	// ReadReferralCode returns "" when the user has no code yet
	ReadReferralCode(ctx context.Context, userID uuid.UUID) (string, error)
	// WriteReferralCode stores code only if the user has none; it reports
	// whether the write happened.
	WriteReferralCode(ctx context.Context, userID uuid.UUID, code string) (bool, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
}

// LedgerStore is the append-only record of point movements
type LedgerStore interface {
	InsertEntry(ctx context.Context, entry *models.PointTransaction) error
	// ListEntries returns entries newest first
	ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PointTransaction, error)
	SumEntries(ctx context.Context, userID uuid.UUID) (int64, error)
	FindEntry(ctx context.Context, userID uuid.UUID, reason models.Reason, relatedID uuid.UUID) (*models.PointTransaction, error)
	HasEntryWithReason(ctx context.Context, userID uuid.UUID, reason models.Reason) (bool, error)
}

// WalletStore holds cash-equivalent balances
type WalletStore interface {
	ReadWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	// AdjustWalletBalance applies delta and returns the new balance. It fails
	// with ErrInsufficientWalletBalance rather than going below zero.
	AdjustWalletBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal, reference, description string, metadata models.JSON) (decimal.Decimal, error)
}

// ReferralStore persists referral relationships
type ReferralStore interface {
	InsertReferral(ctx context.Context, referral *models.Referral) error
	FindByReferredID(ctx context.Context, referredID uuid.UUID) (*models.Referral, error)
	// FindPendingByReferredID returns nil, nil when there is no pending referral
	FindPendingByReferredID(ctx context.Context, referredID uuid.UUID) (*models.Referral, error)
	// UpdateStatus moves a referral from one status to another. It reports
	// false when the referral was no longer in the from status.
	UpdateStatus(ctx context.Context, referralID uuid.UUID, from, to models.ReferralStatus, pointsEarned int64, event string) (bool, error)
	ListByReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]models.Referral, error)
	StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (*models.ReferralStats, error)
}

// UserDirectory resolves user-facing identifiers to user ids
type UserDirectory interface {
	// FindUserIDByIdentifier accepts an e-mail address or a referral code
	FindUserIDByIdentifier(ctx context.Context, identifier string) (uuid.UUID, error)
}

// Stores bundles every store the core works with
type Stores interface {
	ProfileStore
	LedgerStore
	WalletStore
	ReferralStore
	UserDirectory
}

// TxRunner runs fn against stores bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	Stores
	WithinTx(ctx context.Context, fn func(s Stores) error) error
}
