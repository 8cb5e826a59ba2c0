// Package storage provides the blob store used for original media and derived
// thumbnails. Exactly one backend is constructed at process start; business
// code only ever sees the Backend interface.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cutroom/cutroom-media-service/config"
)

type PutResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Backend interface {
	// Put stores the object under key, overwriting any previous object with
	// the same key. Same key + same bytes is therefore safe to re-run.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutResult, error)

	// Get returns the object stream, or (nil, nil) when the key does not
	// exist. Errors are reserved for backend failures.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Sign produces a time-limited read URL. Backends without native signing
	// return a stable public URL under the same contract.
	Sign(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete is best-effort; callers log failures and never treat them as fatal.
	Delete(ctx context.Context, key string) error

	// List returns all keys under prefix. Maintenance tooling only.
	List(ctx context.Context, prefix string) ([]string, error)

	Kind() string
}

// LocalPather is an optional capability: backends whose objects are plain
// files expose a direct filesystem path so the worker can skip the network
// hop entirely. Resolved by type assertion, never by branching on Kind.
type LocalPather interface {
	LocalPath(key string) (string, bool)
}

// StorageError marks a backend failure. Synchronous callers surface it as a
// 500-class response; the job queue retries it with backoff.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// New selects the backend from configuration. Call sites receive the result
// as Backend and never branch on the concrete type.
func New(ctx context.Context, cfg *config.EnvConfig) (Backend, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return NewS3Backend(ctx, cfg)
	case "minio":
		return NewMinioBackend(cfg)
	case "local":
		return NewLocalBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
