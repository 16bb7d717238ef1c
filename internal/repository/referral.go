package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freightlink/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InsertReferral persists a new referral relationship
func (r *Repository) InsertReferral(ctx context.Context, referral *models.Referral) error {
	if err := r.db.WithContext(ctx).Create(referral).Error; err != nil {
		return fmt.Errorf("error creating referral: %w", translate(err))
	}
	return nil
}

// FindByReferredID returns the referral for a referred user
func (r *Repository) FindByReferredID(ctx context.Context, referredID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	if err := r.db.WithContext(ctx).Where("referred_id = ?", referredID).First(&referral).Error; err != nil {
		return nil, translate(err)
	}
	return &referral, nil
}

// FindPendingByReferredID returns the pending referral for a referred user, locking it inside a transaction
func (r *Repository) FindPendingByReferredID(ctx context.Context, referredID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	err := r.forUpdate(r.db.WithContext(ctx)).
		Where("referred_id = ? AND status = ?", referredID, models.ReferralStatusPending).
		First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding pending referral: %w", err)
	}
	return &referral, nil
}

// UpdateStatus moves a referral from one status to another if it is still in from
func (r *Repository) UpdateStatus(ctx context.Context, referralID uuid.UUID, from, to models.ReferralStatus, pointsEarned int64, event string) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ? AND status = ?", referralID, from).
		Updates(map[string]interface{}{
			"status":           to,
			"points_earned":    pointsEarned,
			"qualifying_event": event,
			"qualified_at":     now,
			"updated_at":       now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("error updating referral status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListByReferrer returns the referrals created by a referrer, newest first
func (r *Repository) ListByReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]models.Referral, error) {
	var referrals []models.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&referrals).Error
	if err != nil {
		return nil, fmt.Errorf("error finding referrals: %w", err)
	}
	return referrals, nil
}

// StatsByReferrer aggregates a referrer's referrals by status
func (r *Repository) StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (*models.ReferralStats, error) {
	var rows []struct {
		Status models.ReferralStatus
		Count  int64
		Points int64
	}
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(points_earned), 0) AS points").
		Where("referrer_id = ?", referrerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error aggregating referrals: %w", err)
	}

	stats := &models.ReferralStats{}
	for _, row := range rows {
		stats.Total += row.Count
		stats.PointsEarned += row.Points
		switch row.Status {
		case models.ReferralStatusPending:
			stats.Pending = row.Count
		case models.ReferralStatusCompleted:
			stats.Completed = row.Count
		case models.ReferralStatusRewarded:
			stats.Rewarded = row.Count
		}
	}
	return stats, nil
}
