package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/cutroom/cutroom-media-service/http/controller/dto"
	"github.com/cutroom/cutroom-media-service/utils"
)

// ListStorageKeys enumerates objects under a prefix, scoped to the caller's
// tenant so nobody can walk another tenant's tree.
func (ctrl *Controller) ListStorageKeys(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := utils.GetTenantIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: tenant_id not found")
		return
	}

	prefix := tenantID.String() + "/"
	if sub := c.Query("prefix"); sub != "" {
		prefix += sub
	}

	keys, err := ctrl.Infra.Storage.List(ctx, prefix)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Maintenance] Failed to list keys under %q", prefix)
		utils.JSON500(c, "Failed to list storage keys")
		return
	}

	utils.JSON200(c, dto.StorageKeysResponse{Prefix: prefix, Keys: keys})
}
