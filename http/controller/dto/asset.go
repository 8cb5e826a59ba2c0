package dto

import "github.com/cutroom/cutroom-media-service/entity"

// UploadResponse confirms the synchronous half of an ingestion. The thumbnail
// arrives later through the job referenced here.
type UploadResponse struct {
	Asset *entity.Asset `json:"asset"`
	JobID string        `json:"job_id,omitempty"`
}

// AssetDetail augments the stored row with time-limited read URLs.
type AssetDetail struct {
	Asset        *entity.Asset `json:"asset"`
	SourceURL    string        `json:"source_url,omitempty"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
}

type QuotaResponse struct {
	TenantID     string `json:"tenant_id"`
	TotalBytes   int64  `json:"total_bytes"`
	HotBytes     int64  `json:"hot_bytes"`
	ColdBytes    int64  `json:"cold_bytes"`
	FileCount    int64  `json:"file_count"`
	CeilingBytes int64  `json:"ceiling_bytes"`
}

type StorageKeysResponse struct {
	Prefix string   `json:"prefix"`
	Keys   []string `json:"keys"`
}
