package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/store"
	"github.com/freightlink/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUserIDByIdentifier(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	profile := testutil.CreateProfile(t, repo, "Carrier@Example.com", "Ada Carrier", 0)
	written, err := repo.WriteReferralCode(ctx, profile.ID, "AC7K2M9Q")
	require.NoError(t, err)
	require.True(t, written)

	// Lookup by e-mail is case-insensitive
	id, err := repo.FindUserIDByIdentifier(ctx, "carrier@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, id)

	// Lookup by referral code
	id, err = repo.FindUserIDByIdentifier(ctx, "ac7k2m9q")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, id)

	_, err = repo.FindUserIDByIdentifier(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.FindUserIDByIdentifier(ctx, "  ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWriteReferralCodeIsConditional(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	alice := testutil.CreateProfile(t, repo, "alice@example.com", "Alice", 0)
	bob := testutil.CreateProfile(t, repo, "bob@example.com", "Bob", 0)

	written, err := repo.WriteReferralCode(ctx, alice.ID, "AL000001")
	require.NoError(t, err)
	assert.True(t, written)

	// A second write never replaces the existing code
	written, err = repo.WriteReferralCode(ctx, alice.ID, "AL000002")
	require.NoError(t, err)
	assert.False(t, written)

	code, err := repo.ReadReferralCode(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "AL000001", code)

	// Codes are unique across profiles
	_, err = repo.WriteReferralCode(ctx, bob.ID, "AL000001")
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	exists, err := repo.ReferralCodeExists(ctx, "AL000001")
	require.NoError(t, err)
	assert.True(t, exists)

	code, err = repo.ReadReferralCode(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestLedgerEntriesAreUniquePerRelatedEntity(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	user := testutil.CreateProfile(t, repo, "shipper@example.com", "Shipper", 0)
	shipmentID := uuid.New()

	first := &models.PointTransaction{UserID: user.ID, Amount: 50, Reason: models.ReasonShipmentReward, RelatedID: &shipmentID, BalanceAfter: 50}
	require.NoError(t, repo.InsertEntry(ctx, first))

	second := &models.PointTransaction{UserID: user.ID, Amount: 50, Reason: models.ReasonShipmentReward, RelatedID: &shipmentID, BalanceAfter: 100}
	err := repo.InsertEntry(ctx, second)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	found, err := repo.FindEntry(ctx, user.ID, models.ReasonShipmentReward, shipmentID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = repo.FindEntry(ctx, user.ID, models.ReasonReferralBonus, shipmentID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListAndSumEntries(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	user := testutil.CreateProfile(t, repo, "lister@example.com", "Lister", 100)
	require.NoError(t, repo.InsertEntry(ctx, &models.PointTransaction{UserID: user.ID, Amount: -30, Reason: models.ReasonTransferSent, BalanceAfter: 70}))
	require.NoError(t, repo.InsertEntry(ctx, &models.PointTransaction{UserID: user.ID, Amount: 5, Reason: models.ReasonOther, BalanceAfter: 75}))

	sum, err := repo.SumEntries(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), sum)

	entries, err := repo.ListEntries(ctx, user.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].CreatedAt.Before(entries[1].CreatedAt))

	sum, err = repo.SumEntries(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	user := testutil.CreateProfile(t, repo, "rollback@example.com", "Rollback", 40)
	boom := errors.New("boom")

	err := repo.WithinTx(ctx, func(s store.Stores) error {
		if err := s.WriteBalance(ctx, user.ID, 10); err != nil {
			return err
		}
		if err := s.InsertEntry(ctx, &models.PointTransaction{UserID: user.ID, Amount: -30, Reason: models.ReasonOther, BalanceAfter: 10}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	balance, err := repo.ReadBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)

	sum, err := repo.SumEntries(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), sum)
}

func TestAdjustWalletBalance(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	user := testutil.CreateProfile(t, repo, "wallet@example.com", "Wallet", 0)

	// Missing wallet reads as zero
	balance, err := repo.ReadWalletBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	balance, err = repo.AdjustWalletBalance(ctx, user.ID, decimal.NewFromInt(500), "conv-1", "points conversion", models.JSON{"points": 50})
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(500)))

	_, err = repo.AdjustWalletBalance(ctx, user.ID, decimal.NewFromInt(-600), "debit-1", "too much", nil)
	assert.ErrorIs(t, err, store.ErrInsufficientWalletBalance)

	balance, err = repo.ReadWalletBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(500)))

	transactions, err := repo.ListWalletTransactions(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.True(t, transactions[0].BalanceBefore.IsZero())
	assert.True(t, transactions[0].BalanceAfter.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "conv-1", transactions[0].Reference)
}

func TestReferralStatusCompareAndSet(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	referrer := testutil.CreateProfile(t, repo, "referrer@example.com", "Referrer", 0)
	referred := testutil.CreateProfile(t, repo, "referred@example.com", "Referred", 0)

	referral := &models.Referral{ReferrerID: referrer.ID, ReferredID: referred.ID, Status: models.ReferralStatusPending}
	require.NoError(t, repo.InsertReferral(ctx, referral))

	// A user can only be referred once
	err := repo.InsertReferral(ctx, &models.Referral{ReferrerID: referrer.ID, ReferredID: referred.ID, Status: models.ReferralStatusPending})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	pending, err := repo.FindPendingByReferredID(ctx, referred.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)

	updated, err := repo.UpdateStatus(ctx, referral.ID, models.ReferralStatusPending, models.ReferralStatusRewarded, 500, "first_shipment")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.UpdateStatus(ctx, referral.ID, models.ReferralStatusPending, models.ReferralStatusRewarded, 500, "first_shipment")
	require.NoError(t, err)
	assert.False(t, updated)

	pending, err = repo.FindPendingByReferredID(ctx, referred.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)

	stats, err := repo.StatsByReferrer(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Rewarded)
	assert.Equal(t, int64(500), stats.PointsEarned)
}

func TestSettingsUpsert(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	_, ok, err := repo.GetSetting(ctx, "loyalty.conversion_rate")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetSetting(ctx, "loyalty.conversion_rate", "0.01"))
	require.NoError(t, repo.SetSetting(ctx, "loyalty.conversion_rate", "0.02"))

	value, ok, err := repo.GetSetting(ctx, "loyalty.conversion_rate")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.02", value)

	settings, err := repo.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, settings, 1)
}

func TestListDriftedProfiles(t *testing.T) {
	repo := testutil.NewRepository(t)
	ctx := context.Background()

	healthy := testutil.CreateProfile(t, repo, "healthy@example.com", "Healthy", 120)
	drifted := testutil.CreateProfile(t, repo, "drifted@example.com", "Drifted", 80)
	require.NoError(t, repo.WriteBalance(ctx, drifted.ID, 95))

	drifts, err := repo.ListDriftedProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, drifted.ID, drifts[0].UserID)
	assert.Equal(t, int64(95), drifts[0].Cached)
	assert.Equal(t, int64(80), drifts[0].LedgerSum)
	assert.NotEqual(t, healthy.ID, drifts[0].UserID)
}
