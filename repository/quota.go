package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cutroom/cutroom-media-service/entity"
	"github.com/cutroom/cutroom-media-service/infra"
)

const quotaCacheTTL = 5 * time.Minute

type QuotaRepository struct {
	db           *gorm.DB
	cache        *infra.RedisClient
	ceilingBytes int64
}

func NewQuotaRepository(db *gorm.DB, cache *infra.RedisClient, ceilingBytes int64) *QuotaRepository {
	return &QuotaRepository{db: db, cache: cache, ceilingBytes: ceilingBytes}
}

func (r *QuotaRepository) Ceiling() int64 { return r.ceilingBytes }

// Admit decides whether an upload of deltaBytes fits under the ceiling given
// the currently tracked usage. The caller reads usage and calls Put afterwards
// in separate steps, so concurrent admits can both pass; recompute corrects
// the resulting drift.
func Admit(usedBytes, deltaBytes, ceilingBytes int64) bool {
	return usedBytes+deltaBytes <= ceilingBytes
}

func quotaCacheKey(tenantID uuid.UUID) string {
	return "quota:" + tenantID.String()
}

// Get returns the tenant's tracked usage, creating a zero row on first touch.
func (r *QuotaRepository) Get(ctx context.Context, tenantID uuid.UUID) (*entity.QuotaRecord, error) {
	var cached entity.QuotaRecord
	if r.cache != nil {
		if err := r.cache.Get(ctx, quotaCacheKey(tenantID), &cached); err == nil {
			return &cached, nil
		}
	}

	record := entity.QuotaRecord{TenantID: tenantID}
	err := r.db.WithContext(ctx).
		Where(entity.QuotaRecord{TenantID: tenantID}).
		FirstOrCreate(&record).Error
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, quotaCacheKey(tenantID), record, quotaCacheTTL)
	}
	return &record, nil
}

// AddUsage applies a signed delta to the tracked counters after a storage
// write (or soft delete) has already happened. Negative totals are possible
// transiently when deletes race recompute; recompute overwrites them.
func (r *QuotaRepository) AddUsage(ctx context.Context, tenantID uuid.UUID, deltaBytes int64, tier entity.StorageTier, fileDelta int64) error {
	record := entity.QuotaRecord{TenantID: tenantID}
	if err := r.db.WithContext(ctx).
		Where(entity.QuotaRecord{TenantID: tenantID}).
		FirstOrCreate(&record).Error; err != nil {
		return err
	}

	tierColumn := "hot_bytes"
	if tier == entity.TierCold {
		tierColumn = "cold_bytes"
	}

	err := r.db.WithContext(ctx).Model(&entity.QuotaRecord{}).
		Where("tenant_id = ?", tenantID).
		Updates(map[string]interface{}{
			"total_bytes": gorm.Expr("total_bytes + ?", deltaBytes),
			tierColumn:    gorm.Expr(tierColumn+" + ?", deltaBytes),
			"file_count":  gorm.Expr("file_count + ?", fileDelta),
		}).Error
	if err != nil {
		return err
	}

	if r.cache != nil {
		_ = r.cache.Delete(ctx, quotaCacheKey(tenantID))
	}
	return nil
}

// recordFromUsage maps an aggregate onto the tracked row. Pure, so the same
// aggregate always yields the same row regardless of prior drift.
func recordFromUsage(tenantID uuid.UUID, usage TenantUsage) entity.QuotaRecord {
	return entity.QuotaRecord{
		TenantID:   tenantID,
		TotalBytes: usage.TotalBytes,
		HotBytes:   usage.HotBytes,
		ColdBytes:  usage.ColdBytes,
		FileCount:  usage.FileCount,
	}
}

// Recompute overwrites the tracked row with the aggregate ground truth.
// Running it twice in a row with no interleaved uploads is a no-op.
func (r *QuotaRepository) Recompute(ctx context.Context, tenantID uuid.UUID, usage TenantUsage) (*entity.QuotaRecord, error) {
	record := recordFromUsage(tenantID, usage)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_bytes", "hot_bytes", "cold_bytes", "file_count", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, quotaCacheKey(tenantID), record, quotaCacheTTL)
	}
	return &record, nil
}

// TenantIDs lists every tenant that owns at least one asset row, for the
// periodic recompute sweep.
func (r *QuotaRepository) TenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.Asset{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return ids, nil
}
