package entity

import (
	"time"

	"github.com/google/uuid"
)

// QuotaRecord keeps one aggregate row per tenant. The totals SHOULD equal the
// sum of sizes of the tenant's non-deleted assets, but the admission check and
// the storage write are not one transaction, so the row can drift under
// concurrent uploads. Recompute overwrites it from ground truth.
type QuotaRecord struct {
	TenantID   uuid.UUID `json:"tenant_id" gorm:"type:uuid;primaryKey"`
	TotalBytes int64     `json:"total_bytes" gorm:"not null;default:0"`
	HotBytes   int64     `json:"hot_bytes" gorm:"not null;default:0"`
	ColdBytes  int64     `json:"cold_bytes" gorm:"not null;default:0"`
	FileCount  int64     `json:"file_count" gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
