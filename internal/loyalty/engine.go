// Package loyalty owns the points ledger. Every change to a user's loyalty
// balance goes through the Engine, which appends an immutable ledger entry and
// updates the cached balance on the profile in the same transaction.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/store"
	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Config tunes the engine
type Config struct {
	// VerifyOnWrite re-sums the ledger after every write and rejects the
	// write when the sum disagrees with the new cached balance
	VerifyOnWrite bool
	// ReadRetries bounds the attempts of GetBalance
	ReadRetries    int
	RetryBaseDelay time.Duration
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		VerifyOnWrite:  true,
		ReadRetries:    3,
		RetryBaseDelay: 50 * time.Millisecond,
	}
}

// EntryRequest describes a single point movement
type EntryRequest struct {
	UserID    uuid.UUID
	Amount    int64
	Reason    models.Reason
	Metadata  models.JSON
	RelatedID *uuid.UUID
}

// EntryResult carries the stored entry together with the balance before and
// after it, so callers can reconcile optimistic displays
type EntryResult struct {
	Entry           *models.PointTransaction `json:"entry"`
	PreviousBalance int64                    `json:"previous_balance"`
	NewBalance      int64                    `json:"new_balance"`
}

// Verification compares a cached balance against its ledger
type Verification struct {
	UserID        uuid.UUID `json:"user_id"`
	CachedBalance int64     `json:"cached_balance"`
	LedgerSum     int64     `json:"ledger_sum"`
	Consistent    bool      `json:"consistent"`
}

// Engine is the points ledger engine
type Engine struct {
	stores store.TxRunner
	config Config
}

// NewEngine creates a new ledger engine
func NewEngine(stores store.TxRunner, config Config) *Engine {
	if config.ReadRetries < 1 {
		config.ReadRetries = 1
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 50 * time.Millisecond
	}
	return &Engine{stores: stores, config: config}
}

func (e *Engine) validate(req EntryRequest) error {
	if req.UserID == uuid.Nil {
		return ErrProfileNotFound
	}
	if req.Amount == 0 {
		return ErrInvalidAmount
	}
	if !req.Reason.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownReason, req.Reason)
	}
	return nil
}

// AppendEntry records a point movement in its own transaction
func (e *Engine) AppendEntry(ctx context.Context, req EntryRequest) (*EntryResult, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	var result *EntryResult
	err := e.stores.WithinTx(ctx, func(s store.Stores) error {
		var err error
		result, err = e.AppendEntryTx(ctx, s, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AppendEntryTx records a point movement using stores bound to the caller's
// transaction. The profile row stays locked until that transaction ends.
func (e *Engine) AppendEntryTx(ctx context.Context, s store.Stores, req EntryRequest) (*EntryResult, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	current, err := s.ReadBalance(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("error reading balance: %w", err)
	}

	if req.RelatedID != nil {
		_, err := s.FindEntry(ctx, req.UserID, req.Reason, *req.RelatedID)
		if err == nil {
			return nil, ErrDuplicateEntry
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("error checking for existing entry: %w", err)
		}
	}

	if req.Amount > 0 && current > math.MaxInt64-req.Amount {
		return nil, ErrInvalidAmount
	}
	newBalance := current + req.Amount
	if newBalance < 0 {
		return nil, fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientPoints, current, -req.Amount)
	}

	entry := &models.PointTransaction{
		UserID:       req.UserID,
		Amount:       req.Amount,
		Reason:       req.Reason,
		Metadata:     req.Metadata,
		RelatedID:    req.RelatedID,
		BalanceAfter: newBalance,
	}
	if err := s.InsertEntry(ctx, entry); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrDuplicateEntry
		}
		return nil, err
	}

	if err := s.WriteBalance(ctx, req.UserID, newBalance); err != nil {
		return nil, err
	}

	if e.config.VerifyOnWrite {
		sum, err := s.SumEntries(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if sum != newBalance {
			log.Printf("[loyalty] integrity error: user %s cached balance %d, ledger sum %d after %s entry", req.UserID, newBalance, sum, req.Reason)
			return nil, fmt.Errorf("%w: user %s cached %d, ledger %d", ErrLedgerDrift, req.UserID, newBalance, sum)
		}
	}

	return &EntryResult{
		Entry:           entry,
		PreviousBalance: current,
		NewBalance:      newBalance,
	}, nil
}

// GetBalance returns the cached balance of a user
func (e *Engine) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := retryRead(ctx, e.config.ReadRetries, e.config.RetryBaseDelay, func() (int64, error) {
		return e.stores.ReadBalance(ctx, userID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrProfileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("error reading balance: %w", err)
	}
	return balance, nil
}

// History returns a page of a user's ledger, newest first
func (e *Engine) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PointTransaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return e.stores.ListEntries(ctx, userID, limit, offset)
}

// VerifyBalance compares the cached balance with the ledger sum
func (e *Engine) VerifyBalance(ctx context.Context, userID uuid.UUID) (*Verification, error) {
	cached, err := e.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := e.stores.SumEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		UserID:        userID,
		CachedBalance: cached,
		LedgerSum:     sum,
		Consistent:    cached == sum,
	}
	if !v.Consistent {
		log.Printf("[loyalty] integrity error: user %s cached balance %d, ledger sum %d", userID, cached, sum)
		return v, ErrLedgerDrift
	}
	return v, nil
}

// AwardShipment credits the shipment reward once per shipment. A repeated
// award for the same shipment returns awarded=false.
func (e *Engine) AwardShipment(ctx context.Context, userID, shipmentID uuid.UUID, points int64) (*EntryResult, bool, error) {
	if points <= 0 {
		return nil, false, ErrInvalidAmount
	}

	result, err := e.AppendEntry(ctx, EntryRequest{
		UserID:    userID,
		Amount:    points,
		Reason:    models.ReasonShipmentReward,
		Metadata:  models.JSON{"shipment_id": shipmentID.String()},
		RelatedID: &shipmentID,
	})
	if errors.Is(err, ErrDuplicateEntry) {
		log.Printf("[loyalty] shipment %s already rewarded for user %s", shipmentID, userID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// Adjust applies a manual admin correction
func (e *Engine) Adjust(ctx context.Context, userID uuid.UUID, amount int64, note string, adminID uuid.UUID) (*EntryResult, error) {
	result, err := e.AppendEntry(ctx, EntryRequest{
		UserID: userID,
		Amount: amount,
		Reason: models.ReasonOther,
		Metadata: models.JSON{
			"note":     note,
			"admin_id": adminID.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[loyalty] admin %s adjusted user %s by %d points", adminID, userID, amount)
	return result, nil
}
