package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusWaiting   JobStatus = "waiting"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is the durable record for one unit of queued work. Rows are deleted on
// success; a terminally failed row is kept for operator inspection.
type Job struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Queue       string         `json:"queue" gorm:"type:varchar(128);not null;index"`
	AssetID     uuid.UUID      `json:"asset_id" gorm:"type:uuid;not null;index"`
	Payload     datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	Attempts    int            `json:"attempts" gorm:"not null;default:0"`
	MaxAttempts int            `json:"max_attempts" gorm:"not null"`
	BackoffKind string         `json:"backoff_kind" gorm:"type:varchar(16);not null"`
	BaseDelayMs int64          `json:"base_delay_ms" gorm:"not null"`
	Status      JobStatus      `json:"status" gorm:"type:varchar(16);not null;index"`
	Error       string         `json:"error,omitempty" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}
