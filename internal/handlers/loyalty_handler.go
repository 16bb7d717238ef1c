package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/freightlink/backend/internal/conversion"
	"github.com/freightlink/backend/internal/loyalty"
	"github.com/freightlink/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletReader reads cash wallets
type WalletReader interface {
	ReadWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListWalletTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error)
}

// RateSource supplies the conversion rate at call time
type RateSource interface {
	ConversionRate(ctx context.Context) decimal.Decimal
}

// LoyaltyHandler handles balance, history, conversion and transfer requests
type LoyaltyHandler struct {
	ledger     *loyalty.Engine
	conversion *conversion.Service
	wallets    WalletReader
	rates      RateSource
}

// NewLoyaltyHandler creates a new loyalty handler
func NewLoyaltyHandler(ledger *loyalty.Engine, conv *conversion.Service, wallets WalletReader, rates RateSource) *LoyaltyHandler {
	return &LoyaltyHandler{
		ledger:     ledger,
		conversion: conv,
		wallets:    wallets,
		rates:      rates,
	}
}

// GetBalance returns the user's points and wallet balance
func (h *LoyaltyHandler) GetBalance(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	points, err := h.ledger.GetBalance(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	wallet, err := h.wallets.ReadWalletBalance(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points":         points,
		"wallet_balance": wallet,
	})
}

// GetHistory returns a page of the user's ledger, newest first
func (h *LoyaltyHandler) GetHistory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit, offset, page := pagination(c, loyalty.DefaultHistoryLimit, loyalty.MaxHistoryLimit)
	entries, err := h.ledger.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": entries,
		"page":         page,
		"page_size":    limit,
	})
}

// GetWalletTransactions returns a page of wallet movements, newest first
func (h *LoyaltyHandler) GetWalletTransactions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit, offset, page := pagination(c, loyalty.DefaultHistoryLimit, loyalty.MaxHistoryLimit)
	txs, err := h.wallets.ListWalletTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"page":         page,
		"page_size":    limit,
	})
}

// Convert turns points into wallet balance at the current platform rate
func (h *LoyaltyHandler) Convert(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input struct {
		Points int64 `json:"points" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	result, err := h.conversion.ConvertToWallet(ctx, userID, input.Points, h.rates.ConversionRate(ctx))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Transfer sends points to another user by e-mail or referral code
func (h *LoyaltyHandler) Transfer(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input struct {
		Recipient string `json:"recipient" binding:"required"`
		Amount    int64  `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.conversion.TransferPoints(c.Request.Context(), userID, input.Recipient, input.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
