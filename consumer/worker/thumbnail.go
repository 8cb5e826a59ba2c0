package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/entity"
	"github.com/cutroom/cutroom-media-service/infra"
	"github.com/cutroom/cutroom-media-service/infra/produce"
	"github.com/cutroom/cutroom-media-service/infra/storage"
	"github.com/cutroom/cutroom-media-service/media"
	"github.com/cutroom/cutroom-media-service/provider"
	"github.com/cutroom/cutroom-media-service/repository"
)

type ThumbnailConsumer struct {
	channel    *amqp.Channel
	cfg        *config.EnvConfig
	infra      *infra.Infra
	repository *repository.Repository
}

func NewThumbnailConsumer(channel *amqp.Channel, cfg *config.EnvConfig, infra *infra.Infra, repo *repository.Repository) *ThumbnailConsumer {
	return &ThumbnailConsumer{
		channel:    channel,
		cfg:        cfg,
		infra:      infra,
		repository: repo,
	}
}

// Start registers the consumer and runs one handler goroutine per concurrency
// slot. Prefetch matches the slot count, so the broker never hands this
// process more jobs than it can run at once.
func (c *ThumbnailConsumer) Start(ctx context.Context) error {
	concurrency := c.cfg.Thumbnail.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	if err := c.channel.Qos(concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.infra.Produce.ThumbnailService.Queue(),
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register thumbnail consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Started %d workers on queue: %s",
		concurrency, c.infra.Produce.ThumbnailService.Queue())

	for i := 0; i < concurrency; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Shutting down...")
					return
				case msg, ok := <-msgs:
					if !ok {
						c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer] Channel closed")
						return
					}
					c.handleThumbnail(ctx, msg)
				}
			}
		}()
	}

	return nil
}

func (c *ThumbnailConsumer) handleThumbnail(ctx context.Context, msg amqp.Delivery) {
	var payload produce.ThumbnailJobMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer] Failed to unmarshal message")
		_ = msg.Nack(false, false)
		return
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer] Invalid job ID %q", payload.JobID)
		_ = msg.Nack(false, false)
		return
	}

	assetID, err := uuid.Parse(payload.AssetID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer] Invalid asset ID %q", payload.AssetID)
		_ = msg.Nack(false, false)
		return
	}

	// The row is deleted on success, so a redelivered message for a finished
	// job acks without doing the work again.
	job, err := c.repository.JobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Job %s already completed, skipping", jobID)
			_ = msg.Ack(false)
			return
		}
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer] Failed to load job %s", jobID)
		_ = msg.Nack(false, true)
		return
	}

	asset, err := c.repository.AssetRepo.FindByID(assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer] Asset %s gone, job %s cannot complete", assetID, jobID)
			_ = c.repository.JobRepo.MarkFailed(jobID, "asset deleted before processing")
			_ = msg.Ack(false)
			return
		}
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer] Failed to load asset %s", assetID)
		_ = msg.Nack(false, true)
		return
	}

	if err := c.repository.JobRepo.MarkActive(jobID, payload.Attempt); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer] Failed to mark job %s active: %v", jobID, err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Processing job %s for asset %s (attempt %d/%d)",
		jobID, assetID, payload.Attempt, job.MaxAttempts)

	result, err := c.process(ctx, asset, payload)
	if err != nil {
		c.retryOrFail(ctx, msg, payload, job, err)
		return
	}

	if err := c.repository.JobRepo.DeleteOnSuccess(jobID); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer] Failed to delete completed job %s: %v", jobID, err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Completed job %s for asset %s: %s (%dx%d)",
		jobID, assetID, result.URL, result.Width, result.Height)
	_ = msg.Ack(false)
}

// process does the actual work against a background context; the consumer's
// context only governs the dispatch loop, not an attempt already running.
func (c *ThumbnailConsumer) process(ctx context.Context, asset *entity.Asset, payload produce.ThumbnailJobMessage) (*produce.ThumbnailResult, error) {
	bgCtx := context.Background()
	cfg := c.cfg

	isVideo := provider.IsVideoContentType(asset.ContentType)

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Acquiring source for asset %s", asset.ID)

	// Image decoding needs a real file, so the signed URL tier is skipped
	// for image assets.
	src, err := AcquireSource(bgCtx, c.infra.Storage, asset.StorageKey, cfg.Media.ScratchDir, cfg.Thumbnail.SignTTL, !isVideo)
	if err != nil {
		return nil, err
	}
	defer src.Cleanup()

	thumbFile, err := os.CreateTemp(cfg.Media.ScratchDir, "thumb-*.jpg")
	if err != nil {
		return nil, err
	}
	thumbPath := thumbFile.Name()
	thumbFile.Close()
	defer os.Remove(thumbPath)

	var probed *media.ProbeResult
	var duration *int
	var resolution *string

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Extracting thumbnail for asset %s", asset.ID)

	if isVideo {
		// A failed probe degrades to an unknown duration instead of failing
		// the attempt; frame extraction decides whether the file is readable.
		probed, err = media.Probe(bgCtx, src.Input, cfg.Media.ProbeTimeout)
		if err != nil {
			c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer] Probe failed for asset %s, extracting with the default seek: %v", asset.ID, err)
			probed = nil
		}

		var seek float64
		seek, duration, resolution = videoSeek(probed, payload.TimestampHint, cfg.Thumbnail.MaxSeekSeconds)
		if err := media.ExtractFrame(bgCtx, src.Input, thumbPath, seek, cfg.Thumbnail.Width, cfg.Media.ExtractTimeout); err != nil {
			return nil, err
		}
	} else {
		if err := media.MakeImageThumbnail(src.Input, thumbPath, cfg.Thumbnail.Width); err != nil {
			return nil, err
		}
	}

	thumb, err := os.Open(thumbPath)
	if err != nil {
		return nil, err
	}
	defer thumb.Close()

	stat, err := thumb.Stat()
	if err != nil {
		return nil, err
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Thumbnail Consumer] Uploading thumbnail for asset %s", asset.ID)

	// Same asset always derives the same key, so a retried upload overwrites
	// its own earlier object instead of duplicating it.
	thumbKey := provider.ThumbnailKey(asset.StorageKey)
	put, err := c.infra.Storage.Put(bgCtx, thumbKey, thumb, stat.Size(), "image/jpeg")
	if err != nil {
		return nil, err
	}

	if err := c.repository.AssetRepo.SetThumbnail(asset.ID, thumbKey, duration, resolution); err != nil {
		return nil, err
	}

	result := thumbnailResult(put, probed)
	return &result, nil
}

// videoSeek turns probe output into the seek offset and the metadata to
// backfill on the asset. A nil probe result means the duration is unknown;
// the seek falls back to the short-clip default.
func videoSeek(probed *media.ProbeResult, hint *float64, maxSeek float64) (float64, *int, *string) {
	if probed == nil {
		return media.ComputeExtractTime(0, hint, maxSeek), nil, nil
	}

	var duration *int
	var resolution *string
	if probed.DurationSeconds > 0 {
		d := int(probed.DurationSeconds)
		duration = &d
	}
	if res := probed.Resolution(); res != "" {
		resolution = &res
	}
	return media.ComputeExtractTime(probed.DurationSeconds, hint, maxSeek), duration, resolution
}

// thumbnailResult assembles the completion report for one finished job.
func thumbnailResult(put storage.PutResult, probed *media.ProbeResult) produce.ThumbnailResult {
	result := produce.ThumbnailResult{
		URL: put.URL,
		Key: put.Key,
	}
	if probed != nil {
		result.Duration = probed.DurationSeconds
		result.Width = probed.Width
		result.Height = probed.Height
	}
	return result
}

// retryOrFail applies the policy the message carries. Non-terminal failures
// are re-published with the attempt counter advanced; a terminal failure
// keeps the job row for operators.
func (c *ThumbnailConsumer) retryOrFail(ctx context.Context, msg amqp.Delivery, payload produce.ThumbnailJobMessage, job *entity.Job, cause error) {
	if payload.Attempt >= job.MaxAttempts {
		c.infra.Logger.ErrorWithContextf(ctx, cause, "[Thumbnail Consumer] Job %s failed terminally after %d attempts", job.ID, payload.Attempt)
		if err := c.repository.JobRepo.MarkFailed(job.ID, cause.Error()); err != nil {
			c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer] Failed to mark job %s failed: %v", job.ID, err)
		}
		_ = msg.Ack(false)
		return
	}

	delay := payload.Policy.Delay(payload.Attempt)
	c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer] Job %s attempt %d failed, retrying in %s: %v",
		job.ID, payload.Attempt, delay, cause)

	if err := c.repository.JobRepo.MarkWaiting(job.ID, cause.Error()); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Thumbnail Consumer] Failed to park job %s: %v", job.ID, err)
	}

	next := payload
	next.Attempt = payload.Attempt + 1

	// Waiting out the delay holds this handler slot, which is what prefetch
	// budgets for. The original delivery stays unacked until the retry is on
	// the broker, so a crash in between can duplicate an attempt but never
	// drop one.
	if err := redeliver(ctx, delay, msg, next, c.infra.Produce.ThumbnailService.PublishThumbnailJob); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Thumbnail Consumer] Retry of job %s returned to the broker", job.ID)
	}
}

// redeliver waits out the backoff, publishes the advanced message, and only
// then acks the original delivery. Cancellation or a publish failure nacks
// with requeue so the broker redelivers the original instead.
func redeliver(ctx context.Context, delay time.Duration, msg amqp.Delivery,
	next produce.ThumbnailJobMessage, publish func(context.Context, produce.ThumbnailJobMessage) error) error {
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		_ = msg.Nack(false, true)
		return ctx.Err()
	}

	if err := publish(context.Background(), next); err != nil {
		_ = msg.Nack(false, true)
		return err
	}

	return msg.Ack(false)
}
