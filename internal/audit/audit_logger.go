// Package audit records administrative actions taken against user balances
// and platform settings.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/freightlink/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 200
)

// Entry describes one admin action
type Entry struct {
	ActorID      uuid.UUID
	TargetUserID *uuid.UUID
	Action       models.AuditAction
	Success      bool
	IPAddress    string
	UserAgent    string
	Details      models.JSON
}

// Filter narrows an audit query. Zero values match everything.
type Filter struct {
	TargetUserID *uuid.UUID
	Actions      []models.AuditAction
	Since        *time.Time
	Limit        int
	Offset       int
}

// Logger writes audit rows
type Logger struct {
	db *gorm.DB
}

// NewLogger creates a new audit logger
func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// LogAdminAction records an admin action
func (l *Logger) LogAdminAction(ctx context.Context, e Entry) error {
	severity := models.AuditSeverityInfo
	description := "Admin action: " + string(e.Action)
	if !e.Success {
		severity = models.AuditSeverityWarning
		description = "Failed admin action: " + string(e.Action)
	}

	details := models.JSON{}
	for k, v := range e.Details {
		details[k] = v
	}
	details["admin_id"] = e.ActorID.String()
	if e.TargetUserID != nil {
		details["target_user_id"] = e.TargetUserID.String()
	}

	row := models.AuditLog{
		ID:           uuid.New(),
		ActorID:      e.ActorID,
		TargetUserID: e.TargetUserID,
		Action:       e.Action,
		Severity:     severity,
		Description:  description,
		Details:      details,
		Success:      e.Success,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// Query returns matching audit rows newest first, with the total count
func (l *Logger) Query(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := l.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.TargetUserID != nil {
		query = query.Where("target_user_id = ?", *f.TargetUserID)
	}
	if len(f.Actions) > 0 {
		query = query.Where("action IN ?", f.Actions)
	}
	if f.Since != nil {
		query = query.Where("created_at >= ?", *f.Since)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, count, nil
}
