// Package conversion implements user-initiated point movements: turning
// points into wallet balance and sending points to another user.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/freightlink/backend/internal/loyalty"
	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/store"
	"github.com/freightlink/backend/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrBelowMinimumConversion = errors.New("points amount is below the minimum conversion")
	ErrInvalidRate            = errors.New("conversion rate must be positive")
	ErrRecipientNotFound      = errors.New("recipient not found")
	ErrSelfTransferNotAllowed = errors.New("cannot transfer points to yourself")
)

// DefaultMinConversionPoints is used when no Limits source is configured
const DefaultMinConversionPoints int64 = 10

// walletPrecision matches the wallet balance column scale
const walletPrecision = 8

// Limits supplies business limits at call time
type Limits interface {
	MinConversionPoints(ctx context.Context) int64
}

type staticLimits int64

func (l staticLimits) MinConversionPoints(context.Context) int64 { return int64(l) }

// ConversionResult describes a completed points-to-wallet conversion
type ConversionResult struct {
	ConversionID     uuid.UUID       `json:"conversion_id"`
	Reference        string          `json:"reference"`
	PointsDebited    int64           `json:"points_debited"`
	WalletCredited   decimal.Decimal `json:"wallet_credited"`
	Rate             decimal.Decimal `json:"rate"`
	NewPointBalance  int64           `json:"new_point_balance"`
	NewWalletBalance decimal.Decimal `json:"new_wallet_balance"`
}

// TransferResult describes a completed peer-to-peer transfer
type TransferResult struct {
	TransferID       uuid.UUID `json:"transfer_id"`
	RecipientID      uuid.UUID `json:"recipient_id"`
	Amount           int64     `json:"amount"`
	SenderBalance    int64     `json:"sender_balance"`
	RecipientBalance int64     `json:"recipient_balance"`
}

// Service runs conversions and transfers, each in a single transaction
type Service struct {
	stores store.TxRunner
	ledger *loyalty.Engine
	limits Limits
}

// Option configures a Service
type Option func(*Service)

// WithLimits reads the minimum conversion from limits on every call
func WithLimits(limits Limits) Option {
	return func(s *Service) {
		s.limits = limits
	}
}

// NewService creates a new conversion service
func NewService(stores store.TxRunner, ledger *loyalty.Engine, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		ledger: ledger,
		limits: staticLimits(DefaultMinConversionPoints),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConvertToWallet debits points and credits points*rate to the user's wallet.
// The rate is the one supplied at invocation. The debit runs first; if any
// later step fails the whole transaction rolls back.
func (s *Service) ConvertToWallet(ctx context.Context, userID uuid.UUID, points int64, rate decimal.Decimal) (*ConversionResult, error) {
	if points <= 0 {
		return nil, loyalty.ErrInvalidAmount
	}
	if minimum := s.limits.MinConversionPoints(ctx); points < minimum {
		return nil, fmt.Errorf("%w: minimum is %d points", ErrBelowMinimumConversion, minimum)
	}
	if !rate.IsPositive() {
		return nil, ErrInvalidRate
	}

	credit := decimal.NewFromInt(points).Mul(rate).Round(walletPrecision)
	if !credit.IsPositive() {
		return nil, ErrInvalidRate
	}

	conversionID := uuid.New()
	reference := utils.GenerateReference("CONV", conversionID, time.Now())
	result := &ConversionResult{
		ConversionID:   conversionID,
		Reference:      reference,
		PointsDebited:  points,
		WalletCredited: credit,
		Rate:           rate,
	}

	err := s.stores.WithinTx(ctx, func(tx store.Stores) error {
		debit, err := s.ledger.AppendEntryTx(ctx, tx, loyalty.EntryRequest{
			UserID: userID,
			Amount: -points,
			Reason: models.ReasonWalletConversion,
			Metadata: models.JSON{
				"rate":          rate.String(),
				"wallet_credit": credit.String(),
				"conversion_id": conversionID.String(),
				"reference":     reference,
			},
			RelatedID: &conversionID,
		})
		if err != nil {
			return err
		}

		walletBalance, err := tx.AdjustWalletBalance(ctx, userID, credit, reference,
			fmt.Sprintf("Converted %d loyalty points", points),
			models.JSON{
				"points":        points,
				"rate":          rate.String(),
				"conversion_id": conversionID.String(),
			})
		if err != nil {
			return fmt.Errorf("error crediting wallet: %w", err)
		}

		result.NewPointBalance = debit.NewBalance
		result.NewWalletBalance = walletBalance
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[conversion] user %s converted %d points to %s at rate %s (%s)", userID, points, credit, rate, reference)
	return result, nil
}

// TransferPoints moves amount points from sender to the user identified by
// recipientIdentifier (e-mail or referral code). Both balances change in one
// transaction, so the total across the two users is conserved.
func (s *Service) TransferPoints(ctx context.Context, senderID uuid.UUID, recipientIdentifier string, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, loyalty.ErrInvalidAmount
	}

	recipientIdentifier = strings.TrimSpace(recipientIdentifier)
	recipientID, err := s.stores.FindUserIDByIdentifier(ctx, recipientIdentifier)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving recipient: %w", err)
	}
	if recipientID == senderID {
		return nil, ErrSelfTransferNotAllowed
	}

	transferID := uuid.New()
	result := &TransferResult{
		TransferID:  transferID,
		RecipientID: recipientID,
		Amount:      amount,
	}

	err = s.stores.WithinTx(ctx, func(tx store.Stores) error {
		// lock both profiles in a fixed order
		first, second := senderID, recipientID
		if strings.Compare(second.String(), first.String()) < 0 {
			first, second = second, first
		}
		for _, id := range []uuid.UUID{first, second} {
			if _, err := tx.ReadBalance(ctx, id); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					if id == recipientID {
						return ErrRecipientNotFound
					}
					return loyalty.ErrProfileNotFound
				}
				return err
			}
		}

		sender, err := tx.FindProfile(ctx, senderID)
		if err != nil {
			return err
		}

		debit, err := s.ledger.AppendEntryTx(ctx, tx, loyalty.EntryRequest{
			UserID: senderID,
			Amount: -amount,
			Reason: models.ReasonTransferSent,
			Metadata: models.JSON{
				"recipient":    recipientIdentifier,
				"recipient_id": recipientID.String(),
				"transfer_id":  transferID.String(),
			},
			RelatedID: &transferID,
		})
		if err != nil {
			return err
		}

		credit, err := s.ledger.AppendEntryTx(ctx, tx, loyalty.EntryRequest{
			UserID: recipientID,
			Amount: amount,
			Reason: models.ReasonTransferReceived,
			Metadata: models.JSON{
				"sender":      sender.Email,
				"sender_id":   senderID.String(),
				"transfer_id": transferID.String(),
			},
			RelatedID: &transferID,
		})
		if err != nil {
			return fmt.Errorf("error crediting recipient: %w", err)
		}

		result.SenderBalance = debit.NewBalance
		result.RecipientBalance = credit.NewBalance
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[conversion] transfer %s: %d points from %s to %s", transferID, amount, senderID, recipientID)
	return result, nil
}
