package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StorageTier tells the reaper and quota accounting which bucket class the
// bytes live in. Everything is ingested hot; cold migration happens elsewhere.
type StorageTier string

const (
	TierHot  StorageTier = "hot"
	TierCold StorageTier = "cold"
)

type Asset struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID   `json:"tenant_id" gorm:"type:uuid;not null;index"`
	ProjectID   uuid.UUID   `json:"project_id" gorm:"type:uuid;not null;index"`
	DisplayName string      `json:"display_name" gorm:"type:varchar(512);not null"`
	Version     int         `json:"version" gorm:"not null;default:1"`
	StorageKey  string      `json:"storage_key" gorm:"type:varchar(1024);not null;uniqueIndex"`
	StorageTier StorageTier `json:"storage_tier" gorm:"type:varchar(16);not null;default:'hot'"`
	ContentType string      `json:"content_type" gorm:"type:varchar(255)"`
	SizeBytes   int64       `json:"size_bytes" gorm:"not null"`

	// Filled by the synchronous probe when it succeeds within its timeout,
	// otherwise left null for the thumbnail worker to backfill.
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	Resolution      *string `json:"resolution,omitempty" gorm:"type:varchar(32)"`

	// Set only after the worker has confirmed the thumbnail write.
	ThumbnailKey *string `json:"thumbnail_key,omitempty" gorm:"type:varchar(1024)"`

	CreatedAt time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
