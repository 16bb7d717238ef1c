package repository

import (
	"context"
	"fmt"

	"github.com/freightlink/backend/internal/models"
	"github.com/google/uuid"
)

// InsertEntry appends a ledger entry
func (r *Repository) InsertEntry(ctx context.Context, entry *models.PointTransaction) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("error creating ledger entry: %w", translate(err))
	}
	return nil
}

// ListEntries returns a page of a user's ledger, newest first
func (r *Repository) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PointTransaction, error) {
	var entries []models.PointTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("error finding ledger entries: %w", err)
	}
	return entries, nil
}

// SumEntries returns the sum of all ledger amounts for a user
func (r *Repository) SumEntries(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("error summing ledger entries: %w", err)
	}
	return sum, nil
}

// FindEntry looks up the entry a triggering entity produced for a user
func (r *Repository) FindEntry(ctx context.Context, userID uuid.UUID, reason models.Reason, relatedID uuid.UUID) (*models.PointTransaction, error) {
	var entry models.PointTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND reason = ? AND related_id = ?", userID, reason, relatedID).
		First(&entry).Error
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

// HasEntryWithReason reports whether the user has any entry of reason
func (r *Repository) HasEntryWithReason(ctx context.Context, userID uuid.UUID, reason models.Reason) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PointTransaction{}).
		Where("user_id = ? AND reason = ?", userID, reason).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

// BalanceDrift is a profile whose cached balance disagrees with its ledger
type BalanceDrift struct {
	UserID    uuid.UUID
	Cached    int64
	LedgerSum int64
}

// ListDriftedProfiles scans every profile for cached/ledger mismatches
func (r *Repository) ListDriftedProfiles(ctx context.Context) ([]BalanceDrift, error) {
	var drifts []BalanceDrift
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS user_id, p.loyalty_points AS cached, COALESCE(SUM(t.amount), 0) AS ledger_sum
		FROM profiles p
		LEFT JOIN point_transactions t ON t.user_id = p.id
		WHERE p.deleted_at IS NULL
		GROUP BY p.id, p.loyalty_points
		HAVING p.loyalty_points <> COALESCE(SUM(t.amount), 0)`).
		Scan(&drifts).Error
	if err != nil {
		return nil, fmt.Errorf("error scanning for balance drift: %w", err)
	}
	return drifts, nil
}
