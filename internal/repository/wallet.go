package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReadWalletBalance returns the wallet balance, zero when the user has no wallet yet
func (r *Repository) ReadWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("error finding wallet: %w", err)
	}
	return wallet.Balance, nil
}

// getOrCreateWallet gets a user's wallet or creates one if it doesn't exist
func (r *Repository) getOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet

	err := r.forUpdate(r.db.WithContext(ctx)).Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}

	wallet = models.Wallet{
		UserID:   userID,
		Currency: r.currency,
		Balance:  decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error creating wallet: %w", translate(err))
	}
	return &wallet, nil
}

// AdjustWalletBalance applies delta to the user's wallet and records a wallet transaction
func (r *Repository) AdjustWalletBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal, reference, description string, metadata models.JSON) (decimal.Decimal, error) {
	wallet, err := r.getOrCreateWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	balanceBefore := wallet.Balance
	balanceAfter := balanceBefore.Add(delta)
	if balanceAfter.IsNegative() {
		return balanceBefore, store.ErrInsufficientWalletBalance
	}

	if err := r.db.WithContext(ctx).Model(wallet).Update("balance", balanceAfter).Error; err != nil {
		return decimal.Zero, fmt.Errorf("error updating wallet balance: %w", err)
	}

	transaction := models.WalletTransaction{
		WalletID:      wallet.ID,
		UserID:        userID,
		Amount:        delta,
		Currency:      wallet.Currency,
		Reference:     reference,
		Description:   description,
		MetaData:      metadata,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
	}
	if err := r.db.WithContext(ctx).Create(&transaction).Error; err != nil {
		return decimal.Zero, fmt.Errorf("error creating wallet transaction record: %w", err)
	}

	return balanceAfter, nil
}

// ListWalletTransactions gets wallet transaction history for a user
func (r *Repository) ListWalletTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	var transactions []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("error finding wallet transactions: %w", err)
	}
	return transactions, nil
}
