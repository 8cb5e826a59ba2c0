package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cutroom/cutroom-media-service/http/controller"
	middlewares "github.com/cutroom/cutroom-media-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api/v1/media")
	{
		apiRoutes.Use(middles.AuthMiddleware)

		projectRoutes := apiRoutes.Group("/projects")
		{
			projectRoutes.POST("/:project_id/assets", ctrl.UploadAsset)
			projectRoutes.GET("/:project_id/assets", ctrl.ListAssets)
		}

		assetRoutes := apiRoutes.Group("/assets")
		{
			assetRoutes.GET("/:id", ctrl.GetAsset)
			assetRoutes.DELETE("/:id", ctrl.DeleteAsset)
			assetRoutes.POST("/:id/thumbnail", ctrl.RequestThumbnail)
		}

		quotaRoutes := apiRoutes.Group("/quota")
		{
			quotaRoutes.GET("/", ctrl.GetQuota)
			quotaRoutes.POST("/recompute", ctrl.RecomputeQuota)
		}

		jobRoutes := apiRoutes.Group("/jobs")
		{
			jobRoutes.GET("/", ctrl.ListJobs)
			jobRoutes.GET("/:id", ctrl.GetJob)
		}

		maintenanceRoutes := apiRoutes.Group("/maintenance")
		{
			maintenanceRoutes.GET("/storage/keys", ctrl.ListStorageKeys)
		}
	}
	return r
}
