package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus defines the status of a background job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is the audit row kept for every queued event
type Job struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Queue       string          `gorm:"size:100;not null;index" json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	Status      JobStatus       `gorm:"size:20;not null;index" json:"status"`
	RetryCount  int             `gorm:"not null;default:0" json:"retry_count"`
	MaxRetries  int             `gorm:"not null;default:3" json:"max_retries"`
	NextRetry   *time.Time      `json:"next_retry,omitempty"`
	Error       string          `gorm:"type:text" json:"error,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Job
func (Job) TableName() string {
	return "jobs"
}
