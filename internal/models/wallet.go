package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency represents supported wallet currencies
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Wallet holds a user's cash-equivalent balance
type Wallet struct {
	Base
	UserID   uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Currency Currency        `gorm:"type:varchar(3);not null" json:"currency"`
	Balance  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0;check:chk_wallets_balance,balance >= 0" json:"balance"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// WalletTransaction records a single change of a wallet balance
type WalletTransaction struct {
	Base
	WalletID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"wallet_id"`
	UserID        uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency      Currency        `gorm:"type:varchar(3);not null" json:"currency"`
	Reference     string          `gorm:"type:varchar(100);index" json:"reference"`
	Description   string          `gorm:"type:text" json:"description"`
	MetaData      JSON            `gorm:"type:jsonb" json:"metadata"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(20,8)" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(20,8)" json:"balance_after"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
