package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/entity"
	"github.com/cutroom/cutroom-media-service/infra"
	"github.com/cutroom/cutroom-media-service/infra/produce"
	"github.com/cutroom/cutroom-media-service/infra/storage"
	"github.com/cutroom/cutroom-media-service/media"
)

type fakeAssets struct {
	created    []*entity.Asset
	failCreate bool
}

func (f *fakeAssets) Create(asset *entity.Asset) error {
	if f.failCreate {
		return errors.New("insert failed")
	}
	f.created = append(f.created, asset)
	return nil
}

type fakeQuotas struct {
	record   entity.QuotaRecord
	ceiling  int64
	getCalls int
	added    []int64
}

func (f *fakeQuotas) Get(ctx context.Context, tenantID uuid.UUID) (*entity.QuotaRecord, error) {
	f.getCalls++
	rec := f.record
	rec.TenantID = tenantID
	return &rec, nil
}

func (f *fakeQuotas) AddUsage(ctx context.Context, tenantID uuid.UUID, deltaBytes int64, tier entity.StorageTier, fileDelta int64) error {
	f.added = append(f.added, deltaBytes)
	return nil
}

func (f *fakeQuotas) Ceiling() int64 { return f.ceiling }

type fakeJobs struct {
	created []*entity.Job
	failed  map[uuid.UUID]string
}

func (f *fakeJobs) Create(job *entity.Job) error {
	f.created = append(f.created, job)
	return nil
}

func (f *fakeJobs) MarkFailed(id uuid.UUID, lastErr string) error {
	if f.failed == nil {
		f.failed = map[uuid.UUID]string{}
	}
	f.failed[id] = lastErr
	return nil
}

type fakeQueue struct {
	published   []produce.ThumbnailJobMessage
	failPublish bool
}

func (f *fakeQueue) PublishThumbnailJob(ctx context.Context, msg produce.ThumbnailJobMessage) error {
	if f.failPublish {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeQueue) Queue() string { return "media.thumbnail" }

type fakeStore struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (storage.PutResult, error) {
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.PutResult{}, err
	}
	f.objects[key] = data
	return storage.PutResult{Key: key}, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]string, error) { return nil, nil }

func (f *fakeStore) Kind() string { return "fake" }

func testConfig() *config.EnvConfig {
	cfg := &config.EnvConfig{}
	cfg.Thumbnail.MaxAttempts = 3
	cfg.Thumbnail.BackoffKind = "exponential"
	cfg.Thumbnail.BaseDelay = 5 * time.Second
	cfg.Media.ProbeTimeout = time.Second
	return cfg
}

func newTestProvider(assets *fakeAssets, quotas *fakeQuotas, jobs *fakeJobs, queue *fakeQueue, store storage.Backend) *UploadProvider {
	cfg := testConfig()
	logger := infra.InitLoggerClient(cfg, nil)
	return NewUploadProvider(assets, quotas, jobs, queue, store, logger, cfg)
}

func videoInput(size int64) UploadInput {
	return UploadInput{
		TenantID:    uuid.New(),
		ProjectID:   uuid.New(),
		DisplayName: "interview.mp4",
		ContentType: "video/mp4",
		SizeBytes:   size,
		Body:        strings.NewReader(strings.Repeat("x", int(size))),
	}
}

func TestUploadSuccessCreatesAssetAndJob(t *testing.T) {
	assets := &fakeAssets{}
	quotas := &fakeQuotas{ceiling: 1 << 30}
	jobs := &fakeJobs{}
	queue := &fakeQueue{}
	store := &fakeStore{}

	p := newTestProvider(assets, quotas, jobs, queue, store)
	in := videoInput(2048)

	asset, job, err := p.Upload(context.Background(), in)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if len(assets.created) != 1 {
		t.Fatalf("want 1 asset created, got %d", len(assets.created))
	}
	if asset.StorageKey == "" || !strings.HasPrefix(asset.StorageKey, in.TenantID.String()+"/") {
		t.Fatalf("storage key %q missing tenant prefix", asset.StorageKey)
	}
	if _, ok := store.objects[asset.StorageKey]; !ok {
		t.Fatalf("object bytes not written under %q", asset.StorageKey)
	}

	if job == nil || len(jobs.created) != 1 {
		t.Fatal("want one durable job row")
	}
	if len(queue.published) != 1 {
		t.Fatalf("want 1 published message, got %d", len(queue.published))
	}
	msg := queue.published[0]
	if msg.JobID != job.ID.String() || msg.AssetID != asset.ID.String() {
		t.Fatalf("message ids do not match the rows: %+v", msg)
	}
	if msg.Attempt != 1 {
		t.Fatalf("first dispatch must carry attempt 1, got %d", msg.Attempt)
	}
	if msg.Policy.MaxAttempts != 3 || msg.Policy.BackoffKind != "exponential" {
		t.Fatalf("policy not carried on the message: %+v", msg.Policy)
	}

	if len(quotas.added) != 1 || quotas.added[0] != 2048 {
		t.Fatalf("quota usage not advanced by the upload size: %v", quotas.added)
	}
}

func TestUploadQuotaDeniedTouchesNothing(t *testing.T) {
	assets := &fakeAssets{}
	quotas := &fakeQuotas{record: entity.QuotaRecord{TotalBytes: 990}, ceiling: 1000}
	jobs := &fakeJobs{}
	queue := &fakeQueue{}
	store := &fakeStore{}

	p := newTestProvider(assets, quotas, jobs, queue, store)

	_, _, err := p.Upload(context.Background(), videoInput(100))
	var qErr *QuotaExceededError
	if !errors.As(err, &qErr) {
		t.Fatalf("expected QuotaExceededError, got %v", err)
	}

	if len(store.objects) != 0 {
		t.Fatal("denied upload must not reach storage")
	}
	if len(assets.created) != 0 || len(jobs.created) != 0 || len(queue.published) != 0 {
		t.Fatal("denied upload must leave no asset, job or message behind")
	}
}

func TestUploadValidationRejectedBeforeQuota(t *testing.T) {
	quotas := &fakeQuotas{ceiling: 1 << 30}
	p := newTestProvider(&fakeAssets{}, quotas, &fakeJobs{}, &fakeQueue{}, &fakeStore{})

	in := videoInput(100)
	in.DisplayName = "malware.exe"

	_, _, err := p.Upload(context.Background(), in)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if quotas.getCalls != 0 {
		t.Fatal("validation must run before the quota read")
	}
}

func TestUploadAssetInsertFailureCleansUpObject(t *testing.T) {
	assets := &fakeAssets{failCreate: true}
	store := &fakeStore{}
	p := newTestProvider(assets, &fakeQuotas{ceiling: 1 << 30}, &fakeJobs{}, &fakeQueue{}, store)

	_, _, err := p.Upload(context.Background(), videoInput(100))
	if err == nil {
		t.Fatal("expected the insert failure to surface")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("orphaned object must be deleted, got deletions %v", store.deleted)
	}
}

func TestUploadEnqueueFailureStillIngests(t *testing.T) {
	assets := &fakeAssets{}
	jobs := &fakeJobs{}
	queue := &fakeQueue{failPublish: true}
	p := newTestProvider(assets, &fakeQuotas{ceiling: 1 << 30}, jobs, queue, &fakeStore{})

	asset, job, err := p.Upload(context.Background(), videoInput(100))
	if err != nil {
		t.Fatalf("a broker outage must not fail the upload: %v", err)
	}
	if asset == nil {
		t.Fatal("asset must still be returned")
	}
	if job != nil {
		t.Fatal("no confirmed job should be reported when publish failed")
	}
	if len(jobs.created) != 1 || len(jobs.failed) != 1 {
		t.Fatal("the durable job row must exist and be marked failed for re-enqueue")
	}
}

func TestUploadProbeFailureNonFatal(t *testing.T) {
	assets := &fakeAssets{}
	p := newTestProvider(assets, &fakeQuotas{ceiling: 1 << 30}, &fakeJobs{}, &fakeQueue{}, &fakeStore{})
	p.probe = func(ctx context.Context, path string, timeout time.Duration) (*media.ProbeResult, error) {
		return nil, errors.New("ffprobe exploded")
	}

	asset, _, err := p.Upload(context.Background(), videoInput(100))
	if err != nil {
		t.Fatalf("probe failure must not fail the upload: %v", err)
	}
	if asset.DurationSeconds != nil || asset.Resolution != nil {
		t.Fatal("failed probe must leave metadata null for the worker to backfill")
	}
}

// The probe runs against a teed scratch copy, so it happens on every backend,
// not only ones that expose filesystem paths.
func TestUploadProbeBackfillsMetadata(t *testing.T) {
	assets := &fakeAssets{}

	var probedPath string
	p := newTestProvider(assets, &fakeQuotas{ceiling: 1 << 30}, &fakeJobs{}, &fakeQueue{}, &fakeStore{})
	p.probe = func(ctx context.Context, path string, timeout time.Duration) (*media.ProbeResult, error) {
		probedPath = path
		return &media.ProbeResult{DurationSeconds: 90, Width: 1920, Height: 1080}, nil
	}

	asset, _, err := p.Upload(context.Background(), videoInput(100))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if probedPath == "" {
		t.Fatal("probe must be attempted even without a local-path backend")
	}
	if asset.DurationSeconds == nil || *asset.DurationSeconds != 90 {
		t.Fatalf("duration not recorded: %+v", asset.DurationSeconds)
	}
	if asset.Resolution == nil || *asset.Resolution != "1920x1080" {
		t.Fatalf("resolution not recorded: %+v", asset.Resolution)
	}
}

func TestUploadProbeSeesUploadedBytes(t *testing.T) {
	p := newTestProvider(&fakeAssets{}, &fakeQuotas{ceiling: 1 << 30}, &fakeJobs{}, &fakeQueue{}, &fakeStore{})

	var scratchSize int
	p.probe = func(ctx context.Context, path string, timeout time.Duration) (*media.ProbeResult, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("scratch copy unreadable at probe time: %v", err)
		}
		scratchSize = len(data)
		return &media.ProbeResult{}, nil
	}

	if _, _, err := p.Upload(context.Background(), videoInput(2048)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if scratchSize != 2048 {
		t.Fatalf("scratch copy held %d bytes, want the full 2048", scratchSize)
	}
}

func TestUploadImageSkipsProbe(t *testing.T) {
	p := newTestProvider(&fakeAssets{}, &fakeQuotas{ceiling: 1 << 30}, &fakeJobs{}, &fakeQueue{}, &fakeStore{})

	probed := false
	p.probe = func(ctx context.Context, path string, timeout time.Duration) (*media.ProbeResult, error) {
		probed = true
		return &media.ProbeResult{}, nil
	}

	in := videoInput(100)
	in.DisplayName = "poster.png"
	in.ContentType = "image/png"

	if _, _, err := p.Upload(context.Background(), in); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if probed {
		t.Fatal("image uploads must not run the video probe")
	}
}
