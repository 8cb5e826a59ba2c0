package provider

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/entity"
	"github.com/cutroom/cutroom-media-service/infra"
	"github.com/cutroom/cutroom-media-service/infra/produce"
	"github.com/cutroom/cutroom-media-service/infra/storage"
	"github.com/cutroom/cutroom-media-service/media"
	"github.com/cutroom/cutroom-media-service/repository"
)

type AssetStore interface {
	Create(asset *entity.Asset) error
}

type QuotaStore interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*entity.QuotaRecord, error)
	AddUsage(ctx context.Context, tenantID uuid.UUID, deltaBytes int64, tier entity.StorageTier, fileDelta int64) error
	Ceiling() int64
}

type JobStore interface {
	Create(job *entity.Job) error
	MarkFailed(id uuid.UUID, lastErr string) error
}

type Enqueuer interface {
	PublishThumbnailJob(ctx context.Context, msg produce.ThumbnailJobMessage) error
	Queue() string
}

type ProbeFunc func(ctx context.Context, path string, timeout time.Duration) (*media.ProbeResult, error)

// UploadProvider runs the ingestion sequence: validate, admit against quota,
// write to storage, probe, record the asset, enqueue the thumbnail job.
type UploadProvider struct {
	assets AssetStore
	quotas QuotaStore
	jobs   JobStore
	queue  Enqueuer
	store  storage.Backend
	logger *infra.LoggerClient
	cfg    *config.EnvConfig
	probe  ProbeFunc
}

func NewUploadProvider(assets AssetStore, quotas QuotaStore, jobs JobStore, queue Enqueuer,
	store storage.Backend, logger *infra.LoggerClient, cfg *config.EnvConfig) *UploadProvider {
	return &UploadProvider{
		assets: assets,
		quotas: quotas,
		jobs:   jobs,
		queue:  queue,
		store:  store,
		logger: logger,
		cfg:    cfg,
		probe:  media.Probe,
	}
}

type UploadInput struct {
	TenantID      uuid.UUID
	ProjectID     uuid.UUID
	DisplayName   string
	Version       int
	ContentType   string
	SizeBytes     int64
	Body          io.Reader
	TimestampHint *float64
}

// Upload ingests one file. The quota check and the storage write are separate
// steps, so two concurrent uploads near the ceiling can both pass admission;
// the periodic recompute reconciles the tracked totals afterwards.
func (p *UploadProvider) Upload(ctx context.Context, in UploadInput) (*entity.Asset, *entity.Job, error) {
	if err := ValidateUpload(in.DisplayName, in.ContentType, in.SizeBytes); err != nil {
		return nil, nil, err
	}

	record, err := p.quotas.Get(ctx, in.TenantID)
	if err != nil {
		return nil, nil, err
	}
	if !repository.Admit(record.TotalBytes, in.SizeBytes, p.quotas.Ceiling()) {
		return nil, nil, &QuotaExceededError{
			UsedBytes:    record.TotalBytes,
			NeededBytes:  in.SizeBytes,
			CeilingBytes: p.quotas.Ceiling(),
		}
	}

	key := NewStorageKey(in.TenantID, in.ProjectID, in.DisplayName)

	// Video bytes are teed into a scratch file as they stream to storage, so
	// the metadata probe can run regardless of which backend is configured.
	// A scratch failure only costs the probe, never the upload.
	body := in.Body
	var probePath string
	if IsVideoContentType(in.ContentType) {
		if scratch, err := os.CreateTemp(p.cfg.Media.ScratchDir, "ingest-*"); err != nil {
			p.logger.WarningWithContextf(ctx, "Scratch file for probe failed: %v", err)
		} else {
			body = io.TeeReader(in.Body, scratch)
			probePath = scratch.Name()
			defer func() {
				scratch.Close()
				os.Remove(probePath)
			}()
		}
	}

	if _, err := p.store.Put(ctx, key, body, in.SizeBytes, in.ContentType); err != nil {
		return nil, nil, err
	}

	version := in.Version
	if version < 1 {
		version = 1
	}

	asset := &entity.Asset{
		ID:          uuid.New(),
		TenantID:    in.TenantID,
		ProjectID:   in.ProjectID,
		DisplayName: in.DisplayName,
		Version:     version,
		StorageKey:  key,
		StorageTier: entity.TierHot,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
	}

	// Bounded probe over the scratch copy. Failures never block ingestion;
	// the thumbnail worker backfills the metadata.
	if probePath != "" {
		if probed, err := p.probe(ctx, probePath, p.cfg.Media.ProbeTimeout); err != nil {
			p.logger.WarningWithContextf(ctx, "Upload probe failed for key %s: %v", key, err)
		} else {
			if probed.DurationSeconds > 0 {
				d := int(probed.DurationSeconds)
				asset.DurationSeconds = &d
			}
			if res := probed.Resolution(); res != "" {
				asset.Resolution = &res
			}
		}
	}

	if err := p.assets.Create(asset); err != nil {
		if delErr := p.store.Delete(ctx, key); delErr != nil {
			p.logger.WarningWithContextf(ctx, "Orphan cleanup failed for key %s: %v", key, delErr)
		}
		return nil, nil, err
	}

	if err := p.quotas.AddUsage(ctx, in.TenantID, in.SizeBytes, entity.TierHot, 1); err != nil {
		p.logger.WarningWithContextf(ctx, "Quota usage update failed for tenant %s: %v", in.TenantID, err)
	}

	job, err := p.EnqueueThumbnail(ctx, asset, in.TimestampHint)
	if err != nil {
		// The asset is already durable. A failed enqueue is recoverable via
		// the manual re-enqueue endpoint, so the upload still succeeds.
		p.logger.ErrorWithContextf(ctx, err, "Thumbnail enqueue failed for asset %s", asset.ID)
		return asset, nil, nil
	}

	return asset, job, nil
}

// EnqueueThumbnail creates the durable job row and publishes its message. The
// row is the source of truth for attempts; the message carries the policy the
// worker applies on failure.
func (p *UploadProvider) EnqueueThumbnail(ctx context.Context, asset *entity.Asset, hint *float64) (*entity.Job, error) {
	policy := produce.RetryPolicy{
		MaxAttempts: p.cfg.Thumbnail.MaxAttempts,
		BackoffKind: p.cfg.Thumbnail.BackoffKind,
		BaseDelay:   p.cfg.Thumbnail.BaseDelay,
	}

	job := &entity.Job{
		ID:          uuid.New(),
		Queue:       p.queue.Queue(),
		AssetID:     asset.ID,
		Attempts:    0,
		MaxAttempts: policy.MaxAttempts,
		BackoffKind: policy.BackoffKind,
		BaseDelayMs: policy.BaseDelay.Milliseconds(),
		Status:      entity.JobStatusWaiting,
	}

	msg := produce.ThumbnailJobMessage{
		JobID:         job.ID.String(),
		AssetID:       asset.ID.String(),
		StorageKey:    asset.StorageKey,
		TimestampHint: hint,
		Attempt:       1,
		Policy:        policy,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	job.Payload = datatypes.JSON(payload)

	if err := p.jobs.Create(job); err != nil {
		return nil, err
	}

	if err := p.queue.PublishThumbnailJob(ctx, msg); err != nil {
		// The row is durable even though the message never left; mark it so
		// operators see the asset is degraded and can re-enqueue.
		if markErr := p.jobs.MarkFailed(job.ID, "publish failed: "+err.Error()); markErr != nil {
			p.logger.WarningWithContextf(ctx, "Failed to mark job %s failed: %v", job.ID, markErr)
		}
		return nil, err
	}

	return job, nil
}
