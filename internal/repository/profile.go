package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/store"
	"github.com/google/uuid"
)

// CreateProfile registers a marketplace user with the loyalty service
func (r *Repository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("error creating profile: %w", translate(err))
	}
	return nil
}

// FindProfile gets a profile by user ID
func (r *Repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// ReadBalance returns the cached point balance, locking the row inside a transaction
func (r *Repository) ReadBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var profile models.Profile
	err := r.forUpdate(r.db.WithContext(ctx)).
		Select("id", "loyalty_points").
		First(&profile, "id = ?", userID).Error
	if err != nil {
		return 0, translate(err)
	}
	return profile.LoyaltyPoints, nil
}

// WriteBalance overwrites the cached point balance
func (r *Repository) WriteBalance(ctx context.Context, userID uuid.UUID, balance int64) error {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Update("loyalty_points", balance)
	if result.Error != nil {
		return fmt.Errorf("error updating loyalty points: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ReadReferralCode returns the user's referral code or "" when none is set
func (r *Repository) ReadReferralCode(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := r.FindProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile.ReferralCode == nil {
		return "", nil
	}
	return *profile.ReferralCode, nil
}

// WriteReferralCode sets the code only when the profile has none yet
func (r *Repository) WriteReferralCode(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND referral_code IS NULL", userID).
		Update("referral_code", code)
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ReferralCodeExists reports whether any profile already owns code
func (r *Repository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&models.Profile{}).
		Where("referral_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindUserIDByIdentifier resolves an e-mail address or referral code to a user ID
func (r *Repository) FindUserIDByIdentifier(ctx context.Context, identifier string) (uuid.UUID, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return uuid.Nil, store.ErrNotFound
	}

	query := r.db.WithContext(ctx).Model(&models.Profile{}).Select("id")
	if strings.Contains(identifier, "@") {
		query = query.Where("email = ?", strings.ToLower(identifier))
	} else {
		query = query.Where("referral_code = ?", strings.ToUpper(identifier))
	}

	var profile models.Profile
	if err := query.First(&profile).Error; err != nil {
		return uuid.Nil, translate(err)
	}
	return profile.ID, nil
}
