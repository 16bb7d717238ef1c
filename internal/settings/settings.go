// Package settings exposes admin-editable platform values. Every getter reads
// the store at call time and falls back to the configured default.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/freightlink/backend/internal/config"
	"github.com/freightlink/backend/internal/models"
	"github.com/shopspring/decimal"
)

const (
	KeyConversionRate       = "loyalty.conversion_rate"
	KeyReferralBonusPoints  = "loyalty.referral_bonus_points"
	KeyMinConversionPoints  = "loyalty.min_conversion_points"
	KeyShipmentRewardPoints = "loyalty.shipment_reward_points"
)

var (
	ErrUnknownSetting      = errors.New("unknown setting")
	ErrInvalidSettingValue = errors.New("invalid setting value")
)

// Store persists settings
type Store interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]models.Setting, error)
}

// Service reads and validates platform settings
type Service struct {
	store    Store
	defaults config.LoyaltyConfig
}

// NewService creates a new settings service
func NewService(store Store, defaults config.LoyaltyConfig) *Service {
	return &Service{store: store, defaults: defaults}
}

// get returns "" when the key is unset or unreadable
func (s *Service) get(ctx context.Context, key string) string {
	value, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		log.Printf("[settings] error reading %s, using default: %v", key, err)
		return ""
	}
	if !ok {
		return ""
	}
	return value
}

func intValue(key, value string, fallback int64) int64 {
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("[settings] %s has non-integer value %q, using default", key, value)
		return fallback
	}
	return n
}

func (s *Service) rateValue(value string) decimal.Decimal {
	fallback := decimal.NewFromFloat(s.defaults.ConversionRate)
	if value == "" {
		return fallback
	}
	rate, err := decimal.NewFromString(value)
	if err != nil || !rate.IsPositive() {
		log.Printf("[settings] %s has invalid value %q, using default", KeyConversionRate, value)
		return fallback
	}
	return rate
}

// ConversionRate returns wallet units credited per point
func (s *Service) ConversionRate(ctx context.Context) decimal.Decimal {
	return s.rateValue(s.get(ctx, KeyConversionRate))
}

// ReferralBonus returns the points paid to a referrer
func (s *Service) ReferralBonus(ctx context.Context) int64 {
	return intValue(KeyReferralBonusPoints, s.get(ctx, KeyReferralBonusPoints), s.defaults.ReferralBonusPoints)
}

// MinConversionPoints returns the smallest convertible amount
func (s *Service) MinConversionPoints(ctx context.Context) int64 {
	return intValue(KeyMinConversionPoints, s.get(ctx, KeyMinConversionPoints), s.defaults.MinConversionPoints)
}

// ShipmentRewardPoints returns the points credited per delivered shipment
func (s *Service) ShipmentRewardPoints(ctx context.Context) int64 {
	return intValue(KeyShipmentRewardPoints, s.get(ctx, KeyShipmentRewardPoints), s.defaults.ShipmentRewardPoints)
}

// Set validates and stores a setting
func (s *Service) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case KeyConversionRate:
		rate, err := decimal.NewFromString(value)
		if err != nil || !rate.IsPositive() {
			return fmt.Errorf("%w: %s must be a positive decimal", ErrInvalidSettingValue, key)
		}
		value = rate.String()
	case KeyReferralBonusPoints, KeyShipmentRewardPoints:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidSettingValue, key)
		}
	case KeyMinConversionPoints:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", ErrInvalidSettingValue, key)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	if err := s.store.SetSetting(ctx, key, value); err != nil {
		return err
	}
	log.Printf("[settings] %s set to %s", key, value)
	return nil
}

// All returns every known setting with its effective value, read in one query
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]string, len(rows))
	for _, row := range rows {
		stored[row.Key] = row.Value
	}

	return map[string]string{
		KeyConversionRate:       s.rateValue(stored[KeyConversionRate]).String(),
		KeyReferralBonusPoints:  strconv.FormatInt(intValue(KeyReferralBonusPoints, stored[KeyReferralBonusPoints], s.defaults.ReferralBonusPoints), 10),
		KeyMinConversionPoints:  strconv.FormatInt(intValue(KeyMinConversionPoints, stored[KeyMinConversionPoints], s.defaults.MinConversionPoints), 10),
		KeyShipmentRewardPoints: strconv.FormatInt(intValue(KeyShipmentRewardPoints, stored[KeyShipmentRewardPoints], s.defaults.ShipmentRewardPoints), 10),
	}, nil
}
