package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cutroom/cutroom-media-service/entity"
	"github.com/cutroom/cutroom-media-service/utils"
)

func (ctrl *Controller) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()

	status := entity.JobStatus(c.Query("status"))
	switch status {
	case "", entity.JobStatusWaiting, entity.JobStatusActive, entity.JobStatusCompleted, entity.JobStatusFailed:
	default:
		utils.JSON400(c, "Invalid status filter")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 500 {
			utils.JSON400(c, "Invalid limit")
			return
		}
		limit = v
	}

	jobs, err := ctrl.Repository.JobRepo.ListByStatus(status, limit)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to list jobs")
		utils.JSON500(c, "Failed to list jobs")
		return
	}

	utils.JSON200(c, jobs)
}

func (ctrl *Controller) GetJob(c *gin.Context) {
	ctx := c.Request.Context()

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid job id format")
		return
	}

	job, err := ctrl.Repository.JobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Job not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to load job %s", jobID)
		utils.JSON500(c, "Failed to load job")
		return
	}

	utils.JSON200(c, job)
}
