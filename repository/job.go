package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cutroom/cutroom-media-service/entity"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *entity.Job) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) FindByID(id uuid.UUID) (*entity.Job, error) {
	var job entity.Job
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) ListByStatus(status entity.JobStatus, limit int) ([]entity.Job, error) {
	var jobs []entity.Job
	q := r.db.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkActive bumps the attempt counter as the worker picks the job up, so a
// crash mid-attempt still counts against the budget on redelivery.
func (r *JobRepository) MarkActive(id uuid.UUID, attempt int) error {
	return r.db.Model(&entity.Job{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   entity.JobStatusActive,
			"attempts": attempt,
		}).Error
}

// MarkWaiting parks the job between a failed attempt and its re-dispatch.
func (r *JobRepository) MarkWaiting(id uuid.UUID, lastErr string) error {
	return r.db.Model(&entity.Job{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": entity.JobStatusWaiting,
			"error":  lastErr,
		}).Error
}

// MarkFailed is terminal. The row is kept so an operator can see what the
// last error was and re-enqueue by hand.
func (r *JobRepository) MarkFailed(id uuid.UUID, lastErr string) error {
	return r.db.Model(&entity.Job{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": entity.JobStatusFailed,
			"error":  lastErr,
		}).Error
}

// DeleteOnSuccess removes the row once the derived asset is confirmed in
// storage and on the asset record.
func (r *JobRepository) DeleteOnSuccess(id uuid.UUID) error {
	return r.db.Delete(&entity.Job{}, "id = ?", id).Error
}
