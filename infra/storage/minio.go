package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	appconfig "github.com/cutroom/cutroom-media-service/config"
)

// MinioBackend stores objects in any S3-compatible server (MinIO, Garage,
// Ceph RGW) through the MinIO client.
type MinioBackend struct {
	client   *minio.Client
	bucket   string
	endpoint string
}

func NewMinioBackend(cfg *appconfig.EnvConfig) (*MinioBackend, error) {
	if cfg.Storage.MinioEndpoint == "" {
		return nil, fmt.Errorf("minio endpoint is not configured")
	}

	client, err := minio.New(cfg.Storage.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.MinioAccess, cfg.Storage.MinioSecret, ""),
		Secure: cfg.Storage.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio client: %w", err)
	}

	return &MinioBackend{
		client:   client,
		bucket:   cfg.Storage.MinioBucket,
		endpoint: cfg.Storage.MinioEndpoint,
	}, nil
}

func (b *MinioBackend) Kind() string { return "minio" }

// EnsureBucket creates the configured bucket if it does not exist yet.
// Called once from InitInfra.
func (b *MinioBackend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

func (b *MinioBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutResult, error) {
	_, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return PutResult{}, &StorageError{Op: "put", Key: key, Err: err}
	}

	scheme := "http"
	if b.client.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return PutResult{
		Key: key,
		URL: fmt.Sprintf("%s://%s/%s/%s", scheme, b.endpoint, b.bucket, key),
	}, nil
}

func (b *MinioBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	// GetObject is lazy; stat first so a missing key maps to (nil, nil)
	// instead of an error on first read.
	_, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	return obj, nil
}

func (b *MinioBackend) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, ttl, nil)
	if err != nil {
		return "", &StorageError{Op: "sign", Key: key, Err: err}
	}
	return u.String(), nil
}

func (b *MinioBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (b *MinioBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	objectCh := b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objectCh {
		if obj.Err != nil {
			return nil, &StorageError{Op: "list", Key: prefix, Err: obj.Err}
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}
