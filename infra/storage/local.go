package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	appconfig "github.com/cutroom/cutroom-media-service/config"
)

// LocalBackend stores objects as plain files under a root directory. It has
// no native signing, so Sign returns the stable public URL the reverse proxy
// serves the root under.
type LocalBackend struct {
	root    string
	baseURL string
}

func NewLocalBackend(cfg *appconfig.EnvConfig) (*LocalBackend, error) {
	root, err := filepath.Abs(cfg.Storage.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	return &LocalBackend{
		root:    root,
		baseURL: strings.TrimSuffix(cfg.Storage.PublicBaseURL, "/"),
	}, nil
}

func (b *LocalBackend) Kind() string { return "local" }

func (b *LocalBackend) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

// LocalPath implements the LocalPather capability.
func (b *LocalBackend) LocalPath(key string) (string, bool) {
	p := b.path(key)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

func (b *LocalBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutResult, error) {
	dst := b.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return PutResult{}, &StorageError{Op: "put", Key: key, Err: err}
	}

	// Write to a sibling temp file and rename so a concurrent reader never
	// observes a half-written object.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return PutResult{}, &StorageError{Op: "put", Key: key, Err: err}
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return PutResult{}, &StorageError{Op: "put", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return PutResult{}, &StorageError{Op: "put", Key: key, Err: err}
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return PutResult{}, &StorageError{Op: "put", Key: key, Err: err}
	}

	return PutResult{Key: key, URL: b.baseURL + "/" + key}, nil
}

func (b *LocalBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	return f, nil
}

func (b *LocalBackend) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return b.baseURL + "/" + key, nil
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (b *LocalBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, &StorageError{Op: "list", Key: prefix, Err: err}
	}

	return keys, nil
}
