package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reason classifies a loyalty point movement
type Reason string

const (
	ReasonShipmentReward   Reason = "shipment_reward"
	ReasonReferralBonus    Reason = "referral_bonus"
	ReasonWalletConversion Reason = "wallet_conversion"
	ReasonTransferSent     Reason = "transfer_sent"
	ReasonTransferReceived Reason = "transfer_received"
	ReasonOther            Reason = "other"
)

// Valid reports whether r is one of the known reasons
func (r Reason) Valid() bool {
	switch r {
	case ReasonShipmentReward, ReasonReferralBonus, ReasonWalletConversion,
		ReasonTransferSent, ReasonTransferReceived, ReasonOther:
		return true
	}
	return false
}

// PointTransaction is an immutable loyalty ledger entry.
// Amount is positive for credits and negative for debits.
type PointTransaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_point_tx_related,priority:1" json:"user_id"`
	Amount       int64      `gorm:"not null" json:"amount"`
	Reason       Reason     `gorm:"type:varchar(32);not null;uniqueIndex:idx_point_tx_related,priority:2" json:"reason"`
	Metadata     JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	RelatedID    *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_point_tx_related,priority:3" json:"related_id,omitempty"`
	BalanceAfter int64      `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
}

// BeforeCreate assigns the entry id and timestamp
func (p *PointTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}
