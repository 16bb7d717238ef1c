// Package referral tracks who referred whom and pays the referrer once the
// referred user completes a qualifying action.
package referral

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/freightlink/backend/internal/loyalty"
	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/store"
	"github.com/google/uuid"
)

var (
	ErrSelfReferral            = errors.New("users cannot refer themselves")
	ErrDuplicateReferral       = errors.New("user has already been referred")
	ErrInvalidReferralCode     = errors.New("invalid referral code")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique referral code")
	ErrReferralCycle           = errors.New("users cannot refer each other")
	ErrReferralWindowClosed    = errors.New("referrals can only be registered by new users")
)

// EventFirstShipment is the qualifying action of the freight marketplace
const EventFirstShipment = "first_shipment"

const (
	DefaultCodeAttempts = 5
	DefaultSignupWindow = 7 * 24 * time.Hour
	DefaultListLimit    = 20
	MaxListLimit        = 100
)

// QualifyingEvent identifies the business event that completed a referral
type QualifyingEvent struct {
	Name      string
	Reference string // e.g. the shipment id
}

// QualifyResult reports what a Qualify call did
type QualifyResult struct {
	ReferralID      uuid.UUID             `json:"referral_id,omitempty"`
	ReferrerID      uuid.UUID             `json:"referrer_id,omitempty"`
	Status          models.ReferralStatus `json:"status,omitempty"`
	Rewarded        bool                  `json:"rewarded"`
	BonusPoints     int64                 `json:"bonus_points"`
	ReferrerBalance int64                 `json:"referrer_balance,omitempty"`
}

// Option configures a Resolver
type Option func(*Resolver)

// WithCodeAttempts bounds the referral code generation attempts
func WithCodeAttempts(attempts int) Option {
	return func(r *Resolver) {
		if attempts > 0 {
			r.codeAttempts = attempts
		}
	}
}

// WithSuffixGenerator replaces the random code suffix source
func WithSuffixGenerator(fn func() (string, error)) Option {
	return func(r *Resolver) {
		r.suffix = fn
	}
}

// WithSignupWindow limits referral registration to profiles younger than
// window. Zero disables the age check.
func WithSignupWindow(window time.Duration) Option {
	return func(r *Resolver) {
		if window >= 0 {
			r.signupWindow = window
		}
	}
}

// Resolver manages referral relationships and referral codes
type Resolver struct {
	stores       store.TxRunner
	ledger       *loyalty.Engine
	codeAttempts int
	signupWindow time.Duration
	suffix       func() (string, error)
}

// NewResolver creates a new referral resolver
func NewResolver(stores store.TxRunner, ledger *loyalty.Engine, opts ...Option) *Resolver {
	r := &Resolver{
		stores:       stores,
		ledger:       ledger,
		codeAttempts: DefaultCodeAttempts,
		signupWindow: DefaultSignupWindow,
		suffix:       randomSuffix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterReferral records that referredID signed up through referrerID.
// Only new users who have not shipped yet can be referred, and two users can
// never refer each other.
func (r *Resolver) RegisterReferral(ctx context.Context, referrerID, referredID uuid.UUID) (*models.Referral, error) {
	if referrerID == referredID {
		return nil, ErrSelfReferral
	}

	var referred *models.Profile
	for _, id := range []uuid.UUID{referrerID, referredID} {
		profile, err := r.stores.FindProfile(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, loyalty.ErrProfileNotFound
			}
			return nil, err
		}
		if id == referredID {
			referred = profile
		}
	}

	_, err := r.stores.FindByReferredID(ctx, referredID)
	if err == nil {
		return nil, ErrDuplicateReferral
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("error checking existing referral: %w", err)
	}

	upstream, err := r.stores.FindByReferredID(ctx, referrerID)
	if err == nil && upstream.ReferrerID == referredID {
		return nil, ErrReferralCycle
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("error checking referrer's referral: %w", err)
	}

	if r.signupWindow > 0 && time.Since(referred.CreatedAt) > r.signupWindow {
		return nil, ErrReferralWindowClosed
	}
	shipped, err := r.stores.HasEntryWithReason(ctx, referredID, models.ReasonShipmentReward)
	if err != nil {
		return nil, fmt.Errorf("error checking shipment history: %w", err)
	}
	if shipped {
		return nil, ErrReferralWindowClosed
	}

	referral := &models.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Status:     models.ReferralStatusPending,
	}
	if err := r.stores.InsertReferral(ctx, referral); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrDuplicateReferral
		}
		return nil, err
	}

	log.Printf("[referral] %s referred %s", referrerID, referredID)
	return referral, nil
}

// RegisterByCode records a referral from the owner of code
func (r *Resolver) RegisterByCode(ctx context.Context, code string, referredID uuid.UUID) (*models.Referral, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidReferralCode
	}

	referrerID, err := r.stores.FindUserIDByIdentifier(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidReferralCode
	}
	if err != nil {
		return nil, err
	}

	return r.RegisterReferral(ctx, referrerID, referredID)
}

// Qualify completes the pending referral of referredID and credits the
// referrer with bonus points. Users without a pending referral are a no-op.
// Repeated calls for the same referral credit the bonus at most once.
func (r *Resolver) Qualify(ctx context.Context, referredID uuid.UUID, event QualifyingEvent, bonus int64) (*QualifyResult, error) {
	result := &QualifyResult{}

	err := r.stores.WithinTx(ctx, func(s store.Stores) error {
		referral, err := s.FindPendingByReferredID(ctx, referredID)
		if err != nil {
			return err
		}
		if referral == nil {
			return nil
		}

		target := models.ReferralStatusRewarded
		if bonus <= 0 {
			target = models.ReferralStatusCompleted
			bonus = 0
		}

		updated, err := s.UpdateStatus(ctx, referral.ID, models.ReferralStatusPending, target, bonus, event.Name)
		if err != nil {
			return err
		}
		if !updated {
			// another delivery of the same event got here first
			return nil
		}

		result.ReferralID = referral.ID
		result.ReferrerID = referral.ReferrerID
		result.Status = target

		if bonus == 0 {
			return nil
		}

		entry, err := r.ledger.AppendEntryTx(ctx, s, loyalty.EntryRequest{
			UserID: referral.ReferrerID,
			Amount: bonus,
			Reason: models.ReasonReferralBonus,
			Metadata: models.JSON{
				"referred_id": referredID.String(),
				"event":       event.Name,
				"event_ref":   event.Reference,
			},
			RelatedID: &referral.ID,
		})
		if errors.Is(err, loyalty.ErrDuplicateEntry) {
			log.Printf("[referral] bonus for referral %s already in ledger", referral.ID)
			return nil
		}
		if err != nil {
			return err
		}

		result.Rewarded = true
		result.BonusPoints = bonus
		result.ReferrerBalance = entry.NewBalance
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error qualifying referral for %s: %w", referredID, err)
	}

	if result.Rewarded {
		log.Printf("[referral] referral %s rewarded %d points to %s on %s", result.ReferralID, result.BonusPoints, result.ReferrerID, event.Name)
	}
	return result, nil
}

// ResolveCodeOrGenerate returns the user's referral code, creating one if needed
func (r *Resolver) ResolveCodeOrGenerate(ctx context.Context, userID uuid.UUID, fullName string) (string, error) {
	code, err := r.stores.ReadReferralCode(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", loyalty.ErrProfileNotFound
	}
	if err != nil {
		return "", err
	}
	if code != "" {
		return code, nil
	}

	prefix := codePrefix(fullName)
	for attempt := 1; attempt <= r.codeAttempts; attempt++ {
		suffix, err := r.suffix()
		if err != nil {
			return "", fmt.Errorf("error generating referral code: %w", err)
		}
		candidate := prefix + suffix

		exists, err := r.stores.ReferralCodeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			log.Printf("[referral] code collision on %s (attempt %d/%d)", candidate, attempt, r.codeAttempts)
			continue
		}

		written, err := r.stores.WriteReferralCode(ctx, userID, candidate)
		if errors.Is(err, store.ErrDuplicateKey) {
			log.Printf("[referral] code %s taken concurrently (attempt %d/%d)", candidate, attempt, r.codeAttempts)
			continue
		}
		if err != nil {
			return "", err
		}
		if written {
			return candidate, nil
		}

		// a concurrent request already assigned a code to this user
		existing, err := r.stores.ReadReferralCode(ctx, userID)
		if err != nil {
			return "", err
		}
		if existing != "" {
			return existing, nil
		}
	}

	return "", ErrCodeGenerationExhausted
}

// Stats summarises a referrer's referrals
func (r *Resolver) Stats(ctx context.Context, referrerID uuid.UUID) (*models.ReferralStats, error) {
	return r.stores.StatsByReferrer(ctx, referrerID)
}

// ListReferrals returns a page of a referrer's referrals, newest first
func (r *Resolver) ListReferrals(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]models.Referral, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return r.stores.ListByReferrer(ctx, referrerID, limit, offset)
}
