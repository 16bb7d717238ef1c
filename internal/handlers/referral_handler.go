package handlers

import (
	"context"
	"net/http"

	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/referral"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProfileFinder looks up profiles
type ProfileFinder interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// ReferralHandler handles referral code and referral list requests
type ReferralHandler struct {
	resolver *referral.Resolver
	profiles ProfileFinder
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(resolver *referral.Resolver, profiles ProfileFinder) *ReferralHandler {
	return &ReferralHandler{resolver: resolver, profiles: profiles}
}

// GetCode returns the user's referral code, generating one on first use
func (h *ReferralHandler) GetCode(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	profile, err := h.profiles.FindProfile(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	code, err := h.resolver.ResolveCodeOrGenerate(ctx, userID, profile.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referral_code": code})
}

// Register records the current user as referred by the owner of code
func (h *ReferralHandler) Register(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref, err := h.resolver.RegisterByCode(c.Request.Context(), input.Code, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ref)
}

// List returns the user's referrals with summary stats
func (h *ReferralHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	limit, offset, page := pagination(c, referral.DefaultListLimit, referral.MaxListLimit)
	referrals, err := h.resolver.ListReferrals(ctx, userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.resolver.Stats(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
		"stats":     stats,
		"page":      page,
		"page_size": limit,
	})
}
