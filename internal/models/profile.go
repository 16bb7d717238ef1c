package models

import (
	"gorm.io/gorm"
)

// Profile holds a marketplace user's loyalty state. LoyaltyPoints is a cached
// copy of the ledger sum and is only written by the ledger engine.
type Profile struct {
	Base
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName      string         `gorm:"type:varchar(255)" json:"full_name"`
	LoyaltyPoints int64          `gorm:"not null;default:0;check:chk_profiles_loyalty_points,loyalty_points >= 0" json:"loyalty_points"`
	ReferralCode  *string        `gorm:"type:varchar(32);uniqueIndex" json:"referral_code,omitempty"`
	IsAdmin       bool           `gorm:"default:false" json:"is_admin"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}
