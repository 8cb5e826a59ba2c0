package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/cutroom/cutroom-media-service/http/controller/dto"
	"github.com/cutroom/cutroom-media-service/utils"
)

func (ctrl *Controller) GetQuota(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := utils.GetTenantIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: tenant_id not found")
		return
	}

	record, err := ctrl.Repository.QuotaRepo.Get(ctx, tenantID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Quota] Failed to load quota for tenant %s", tenantID)
		utils.JSON500(c, "Failed to load quota")
		return
	}

	utils.JSON200(c, dto.QuotaResponse{
		TenantID:     tenantID.String(),
		TotalBytes:   record.TotalBytes,
		HotBytes:     record.HotBytes,
		ColdBytes:    record.ColdBytes,
		FileCount:    record.FileCount,
		CeilingBytes: ctrl.Repository.QuotaRepo.Ceiling(),
	})
}

// RecomputeQuota overwrites the tracked counters from the asset table on
// demand, the same operation the periodic sweep runs for every tenant.
func (ctrl *Controller) RecomputeQuota(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := utils.GetTenantIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: tenant_id not found")
		return
	}

	usage, err := ctrl.Repository.AssetRepo.SumByTenant(tenantID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Quota] Aggregate failed for tenant %s", tenantID)
		utils.JSON500(c, "Failed to recompute quota")
		return
	}

	record, err := ctrl.Repository.QuotaRepo.Recompute(ctx, tenantID, usage)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Quota] Recompute failed for tenant %s", tenantID)
		utils.JSON500(c, "Failed to recompute quota")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Quota] Recomputed usage for tenant %s: %d bytes over %d files",
		tenantID, record.TotalBytes, record.FileCount)

	utils.JSON200(c, dto.QuotaResponse{
		TenantID:     tenantID.String(),
		TotalBytes:   record.TotalBytes,
		HotBytes:     record.HotBytes,
		ColdBytes:    record.ColdBytes,
		FileCount:    record.FileCount,
		CeilingBytes: ctrl.Repository.QuotaRepo.Ceiling(),
	})
}
