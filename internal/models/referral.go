package models

import (
	"time"

	"github.com/google/uuid"
)

// ReferralStatus tracks where a referral is in its lifecycle
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusRewarded  ReferralStatus = "rewarded"
)

// Referral links a referred user to the user whose code they signed up with.
// A user can only ever be referred once.
type Referral struct {
	Base
	ReferrerID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"referrer_id"`
	ReferredID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"referred_id"`
	Status          ReferralStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PointsEarned    int64          `gorm:"not null;default:0" json:"points_earned"`
	QualifyingEvent string         `gorm:"type:varchar(50)" json:"qualifying_event,omitempty"`
	QualifiedAt     *time.Time     `json:"qualified_at,omitempty"`
}

func (Referral) TableName() string {
	return "referrals"
}

// ReferralStats summarises a referrer's referrals
type ReferralStats struct {
	Total        int64 `json:"total"`
	Pending      int64 `json:"pending"`
	Completed    int64 `json:"completed"`
	Rewarded     int64 `json:"rewarded"`
	PointsEarned int64 `json:"points_earned"`
}
