package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cutroom/cutroom-media-service/entity"
	"github.com/cutroom/cutroom-media-service/http/controller/dto"
	"github.com/cutroom/cutroom-media-service/provider"
	"github.com/cutroom/cutroom-media-service/utils"
)

func (ctrl *Controller) UploadAsset(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := utils.GetTenantIDFromContext(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] tenant_id not found in context")
		utils.JSON401(c, "Unauthorized: tenant_id not found")
		return
	}

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		utils.JSON400(c, "Invalid project_id format")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] Failed to get file from form data")
		utils.JSON400(c, "Failed to get file: "+err.Error())
		return
	}

	displayName := c.PostForm("display_name")
	if displayName == "" {
		displayName = fileHeader.Filename
	}

	contentType := fileHeader.Header.Get("Content-Type")

	version := 1
	if raw := c.PostForm("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			utils.JSON400(c, "Invalid version")
			return
		}
		version = v
	}

	var hint *float64
	if raw := c.PostForm("timestamp_hint"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			utils.JSON400(c, "Invalid timestamp_hint")
			return
		}
		hint = &v
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] Failed to open uploaded file")
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Asset] User %s uploading '%s' (%d bytes) to project %s",
		userID, displayName, fileHeader.Size, projectID)

	asset, job, err := ctrl.Provider.Upload.Upload(ctx, provider.UploadInput{
		TenantID:      tenantID,
		ProjectID:     projectID,
		DisplayName:   displayName,
		Version:       version,
		ContentType:   contentType,
		SizeBytes:     fileHeader.Size,
		Body:          file,
		TimestampHint: hint,
	})
	if err != nil {
		var vErr *provider.ValidationError
		var qErr *provider.QuotaExceededError
		switch {
		case errors.As(err, &vErr):
			utils.JSON400(c, vErr.Error())
		case errors.As(err, &qErr):
			utils.JSON413(c, qErr.Error())
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] Upload failed for project %s", projectID)
			utils.JSON500(c, "Upload failed")
		}
		return
	}

	resp := dto.UploadResponse{Asset: asset}
	if job != nil {
		resp.JobID = job.ID.String()
	}
	utils.JSON201(c, resp)
}

func (ctrl *Controller) ListAssets(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := utils.GetTenantIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: tenant_id not found")
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		utils.JSON400(c, "Invalid project_id format")
		return
	}

	assets, err := ctrl.Repository.AssetRepo.FindByProjectID(projectID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] Failed to list assets for project %s", projectID)
		utils.JSON500(c, "Failed to list assets")
		return
	}

	filtered := make([]entity.Asset, 0, len(assets))
	for _, asset := range assets {
		if asset.TenantID == tenantID {
			filtered = append(filtered, asset)
		}
	}

	utils.JSON200(c, filtered)
}

func (ctrl *Controller) GetAsset(c *gin.Context) {
	ctx := c.Request.Context()

	asset, ok := ctrl.loadTenantAsset(c)
	if !ok {
		return
	}

	detail := dto.AssetDetail{Asset: asset}

	ttl := ctrl.Config.EnvConfig.Thumbnail.SignTTL
	if url, err := ctrl.Infra.Storage.Sign(ctx, asset.StorageKey, ttl); err == nil {
		detail.SourceURL = url
	} else {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Asset] Failed to sign source URL for %s: %v", asset.ID, err)
	}

	if asset.ThumbnailKey != nil {
		if url, err := ctrl.Infra.Storage.Sign(ctx, *asset.ThumbnailKey, ttl); err == nil {
			detail.ThumbnailURL = url
		} else {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Asset] Failed to sign thumbnail URL for %s: %v", asset.ID, err)
		}
	}

	utils.JSON200(c, detail)
}

func (ctrl *Controller) DeleteAsset(c *gin.Context) {
	ctx := c.Request.Context()

	asset, ok := ctrl.loadTenantAsset(c)
	if !ok {
		return
	}

	if err := ctrl.Repository.AssetRepo.SoftDelete(asset.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] Failed to delete asset %s", asset.ID)
		utils.JSON500(c, "Failed to delete asset")
		return
	}

	// Tracked usage goes down immediately; object bytes are reclaimed out of
	// band and any drift is corrected by the recompute sweep.
	if err := ctrl.Repository.QuotaRepo.AddUsage(ctx, asset.TenantID, -asset.SizeBytes, asset.StorageTier, -1); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Asset] Quota release failed for tenant %s: %v", asset.TenantID, err)
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Asset] Deleted asset %s", asset.ID)
	utils.JSON200(c, gin.H{"deleted": asset.ID})
}

// RequestThumbnail re-enqueues the derived-asset job for an existing asset,
// covering uploads whose first enqueue failed or whose thumbnail an operator
// wants rebuilt.
func (ctrl *Controller) RequestThumbnail(c *gin.Context) {
	ctx := c.Request.Context()

	asset, ok := ctrl.loadTenantAsset(c)
	if !ok {
		return
	}

	var hint *float64
	if raw := c.Query("timestamp_hint"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			utils.JSON400(c, "Invalid timestamp_hint")
			return
		}
		hint = &v
	}

	job, err := ctrl.Provider.Upload.EnqueueThumbnail(ctx, asset, hint)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] Failed to enqueue thumbnail for asset %s", asset.ID)
		utils.JSON500(c, "Failed to enqueue thumbnail job")
		return
	}

	utils.JSON202(c, gin.H{"job_id": job.ID})
}

// loadTenantAsset fetches the asset from the path parameter and enforces that
// it belongs to the caller's tenant. Foreign assets read as not found.
func (ctrl *Controller) loadTenantAsset(c *gin.Context) (*entity.Asset, bool) {
	ctx := c.Request.Context()

	tenantID, err := utils.GetTenantIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: tenant_id not found")
		return nil, false
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid asset id format")
		return nil, false
	}

	asset, err := ctrl.Repository.AssetRepo.FindByID(assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Asset not found")
			return nil, false
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Asset] Failed to load asset %s", assetID)
		utils.JSON500(c, "Failed to load asset")
		return nil, false
	}

	if asset.TenantID != tenantID {
		utils.JSON404(c, "Asset not found")
		return nil, false
	}

	return asset, true
}
