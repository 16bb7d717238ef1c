package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names an administrative action
type AuditAction string

const (
	AuditActionAdjustPoints  AuditAction = "ADJUST_POINTS"
	AuditActionUpdateSetting AuditAction = "UPDATE_SETTING"
)

// AuditSeverity is the severity of an audit event
type AuditSeverity string

const (
	AuditSeverityInfo    AuditSeverity = "INFO"
	AuditSeverityWarning AuditSeverity = "WARNING"
)

// AuditLog is an append-only record of an admin action
type AuditLog struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"actor_id"`
	TargetUserID *uuid.UUID    `gorm:"type:uuid;index" json:"target_user_id,omitempty"`
	Action       AuditAction   `gorm:"type:varchar(50);not null;index" json:"action"`
	Severity     AuditSeverity `gorm:"type:varchar(20);not null" json:"severity"`
	Description  string        `json:"description"`
	Details      JSON          `gorm:"type:jsonb" json:"details,omitempty"`
	Success      bool          `json:"success"`
	IPAddress    string        `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent    string        `json:"user_agent"`
	CreatedAt    time.Time     `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
