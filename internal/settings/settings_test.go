package settings_test

import (
	"context"
	"testing"

	"github.com/freightlink/backend/internal/config"
	"github.com/freightlink/backend/internal/settings"
	"github.com/freightlink/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaults = config.LoyaltyConfig{
	ConversionRate:       0.01,
	ReferralBonusPoints:  500,
	MinConversionPoints:  10,
	ShipmentRewardPoints: 50,
}

func TestDefaultsApplyWhenUnset(t *testing.T) {
	svc := settings.NewService(testutil.NewRepository(t), defaults)
	ctx := context.Background()

	assert.True(t, svc.ConversionRate(ctx).Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, int64(500), svc.ReferralBonus(ctx))
	assert.Equal(t, int64(10), svc.MinConversionPoints(ctx))
	assert.Equal(t, int64(50), svc.ShipmentRewardPoints(ctx))
}

func TestSetIsReadAtCallTime(t *testing.T) {
	svc := settings.NewService(testutil.NewRepository(t), defaults)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, settings.KeyConversionRate, "0.05"))
	require.NoError(t, svc.Set(ctx, settings.KeyReferralBonusPoints, "750"))
	require.NoError(t, svc.Set(ctx, settings.KeyMinConversionPoints, " 25 "))

	assert.True(t, svc.ConversionRate(ctx).Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, int64(750), svc.ReferralBonus(ctx))
	assert.Equal(t, int64(25), svc.MinConversionPoints(ctx))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.05", all[settings.KeyConversionRate])
	assert.Equal(t, "50", all[settings.KeyShipmentRewardPoints])
}

func TestSetValidation(t *testing.T) {
	svc := settings.NewService(testutil.NewRepository(t), defaults)
	ctx := context.Background()

	tests := []struct {
		key     string
		value   string
		wantErr error
	}{
		{settings.KeyConversionRate, "0", settings.ErrInvalidSettingValue},
		{settings.KeyConversionRate, "abc", settings.ErrInvalidSettingValue},
		{settings.KeyReferralBonusPoints, "-1", settings.ErrInvalidSettingValue},
		{settings.KeyMinConversionPoints, "0", settings.ErrInvalidSettingValue},
		{"loyalty.unknown", "1", settings.ErrUnknownSetting},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			assert.ErrorIs(t, svc.Set(ctx, tt.key, tt.value), tt.wantErr)
		})
	}
}

func TestCorruptStoredValueFallsBack(t *testing.T) {
	repo := testutil.NewRepository(t)
	svc := settings.NewService(repo, defaults)
	ctx := context.Background()

	require.NoError(t, repo.SetSetting(ctx, settings.KeyReferralBonusPoints, "lots"))
	require.NoError(t, repo.SetSetting(ctx, settings.KeyConversionRate, "-3"))

	assert.Equal(t, int64(500), svc.ReferralBonus(ctx))
	assert.True(t, svc.ConversionRate(ctx).Equal(decimal.RequireFromString("0.01")))
}

type countingStore struct {
	settings.Store
	gets int
}

func (c *countingStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	return c.Store.GetSetting(ctx, key)
}

func TestAllReadsListedRows(t *testing.T) {
	repo := testutil.NewRepository(t)
	counting := &countingStore{Store: repo}
	svc := settings.NewService(counting, defaults)
	ctx := context.Background()

	require.NoError(t, repo.SetSetting(ctx, settings.KeyReferralBonusPoints, "900"))
	require.NoError(t, repo.SetSetting(ctx, settings.KeyConversionRate, "-3"))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counting.gets)
	assert.Equal(t, map[string]string{
		settings.KeyConversionRate:       "0.01",
		settings.KeyReferralBonusPoints:  "900",
		settings.KeyMinConversionPoints:  "10",
		settings.KeyShipmentRewardPoints: "50",
	}, all)
}
