package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cutroom/cutroom-media-service/entity"
)

type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) Create(asset *entity.Asset) error {
	return r.db.Create(asset).Error
}

func (r *AssetRepository) FindByID(id uuid.UUID) (*entity.Asset, error) {
	var asset entity.Asset
	if err := r.db.Where("id = ?", id).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *AssetRepository) FindByProjectID(projectID uuid.UUID) ([]entity.Asset, error) {
	var assets []entity.Asset
	if err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// SetThumbnail records a confirmed thumbnail write and backfills probe
// metadata only where the upload-time probe left it null. Last writer wins on
// redelivered jobs; both writers produce the same key, so the row converges.
func (r *AssetRepository) SetThumbnail(id uuid.UUID, thumbnailKey string, durationSeconds *int, resolution *string) error {
	updates := map[string]interface{}{"thumbnail_key": thumbnailKey}
	if err := r.db.Model(&entity.Asset{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return err
	}

	if durationSeconds != nil {
		if err := r.db.Model(&entity.Asset{}).
			Where("id = ? AND duration_seconds IS NULL", id).
			Update("duration_seconds", *durationSeconds).Error; err != nil {
			return err
		}
	}
	if resolution != nil {
		if err := r.db.Model(&entity.Asset{}).
			Where("id = ? AND resolution IS NULL", id).
			Update("resolution", *resolution).Error; err != nil {
			return err
		}
	}
	return nil
}

// SoftDelete marks the asset deleted; bytes are reclaimed by the reaper and
// quota drift is corrected by the next recompute.
func (r *AssetRepository) SoftDelete(id uuid.UUID) error {
	return r.db.Delete(&entity.Asset{}, "id = ?", id).Error
}

// TenantUsage is the ground truth aggregate recompute overwrites the quota
// record with.
type TenantUsage struct {
	TotalBytes int64
	HotBytes   int64
	ColdBytes  int64
	FileCount  int64
}

func (r *AssetRepository) SumByTenant(tenantID uuid.UUID) (TenantUsage, error) {
	var usage TenantUsage
	err := r.db.Model(&entity.Asset{}).
		Select(`COALESCE(SUM(size_bytes), 0) AS total_bytes,
			COALESCE(SUM(size_bytes) FILTER (WHERE storage_tier = 'hot'), 0) AS hot_bytes,
			COALESCE(SUM(size_bytes) FILTER (WHERE storage_tier = 'cold'), 0) AS cold_bytes,
			COUNT(*) AS file_count`).
		Where("tenant_id = ?", tenantID).
		Scan(&usage).Error
	return usage, err
}
