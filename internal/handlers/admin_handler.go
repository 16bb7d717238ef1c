package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/freightlink/backend/internal/audit"
	"github.com/freightlink/backend/internal/loyalty"
	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/settings"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditTrail records and lists admin actions
type AuditTrail interface {
	LogAdminAction(ctx context.Context, e audit.Entry) error
	Query(ctx context.Context, f audit.Filter) ([]models.AuditLog, int64, error)
}

// AdminHandler handles manual corrections, platform settings and ledger checks
type AdminHandler struct {
	ledger   *loyalty.Engine
	settings *settings.Service
	audit    AuditTrail
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(ledger *loyalty.Engine, settings *settings.Service, trail AuditTrail) *AdminHandler {
	return &AdminHandler{ledger: ledger, settings: settings, audit: trail}
}

// record writes an audit row; failures are logged and never fail the request
func (h *AdminHandler) record(c *gin.Context, e audit.Entry) {
	e.IPAddress = c.ClientIP()
	e.UserAgent = c.Request.UserAgent()
	if err := h.audit.LogAdminAction(c.Request.Context(), e); err != nil {
		log.Printf("[admin] failed to record %s by %s: %v", e.Action, e.ActorID, err)
	}
}

// AdjustPoints applies a manual correction to a user's points
func (h *AdminHandler) AdjustPoints(c *gin.Context) {
	adminID, ok := requireUser(c)
	if !ok {
		return
	}

	var input struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
		Amount int64     `json:"amount" binding:"required"`
		Note   string    `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.Adjust(c.Request.Context(), input.UserID, input.Amount, input.Note, adminID)
	details := models.JSON{"amount": input.Amount, "note": input.Note}
	if err != nil {
		details["error"] = err.Error()
	}
	h.record(c, audit.Entry{
		ActorID:      adminID,
		TargetUserID: &input.UserID,
		Action:       models.AuditActionAdjustPoints,
		Success:      err == nil,
		Details:      details,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSettings returns the effective platform settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	all, err := h.settings.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": all})
}

// UpdateSetting stores a single platform setting
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	adminID, ok := requireUser(c)
	if !ok {
		return
	}

	var input struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	err := h.settings.Set(ctx, input.Key, input.Value)
	h.record(c, audit.Entry{
		ActorID: adminID,
		Action:  models.AuditActionUpdateSetting,
		Success: err == nil,
		Details: models.JSON{"key": input.Key, "value": input.Value},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	all, err := h.settings.All(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": all})
}

// VerifyBalance compares a user's cached balance with the ledger sum.
// A mismatch is reported, not repaired.
func (h *AdminHandler) VerifyBalance(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	v, err := h.ledger.VerifyBalance(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, loyalty.ErrLedgerDrift) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// ListAuditLogs returns admin actions, optionally for one target user
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	limit, offset, page := pagination(c, audit.DefaultQueryLimit, audit.MaxQueryLimit)
	filter := audit.Filter{Limit: limit, Offset: offset}

	if raw := c.Query("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
			return
		}
		filter.TargetUserID = &userID
	}
	if action := c.Query("action"); action != "" {
		filter.Actions = []models.AuditAction{models.AuditAction(action)}
	}

	logs, total, err := h.audit.Query(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"total":      total,
		"page":       page,
		"page_size":  limit,
	})
}
