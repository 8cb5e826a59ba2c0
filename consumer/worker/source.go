package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cutroom/cutroom-media-service/infra/storage"
)

// Source is a local handle on an asset's bytes: either a filesystem path, a
// URL the extraction tool can read directly, or a scratch copy that must be
// removed afterwards.
type Source struct {
	Input   string
	cleanup func()
}

// Cleanup releases whatever the acquisition created. Safe to call on every
// path, including sources that own nothing.
func (s *Source) Cleanup() {
	if s != nil && s.cleanup != nil {
		s.cleanup()
	}
}

// ErrSourceUnavailable means every acquisition strategy was tried and none
// produced a readable input.
var ErrSourceUnavailable = errors.New("source media unavailable")

// AcquireSource resolves the cheapest way to read the object at key, in
// order: a direct filesystem path when the backend has one, a signed URL the
// tool can stream, and finally a buffered download into scratchDir. Strategies
// that do not apply are skipped; strategies that fail fall through to the next.
// Set requireFile when the consumer cannot read URLs, which drops the signed
// URL tier.
func AcquireSource(ctx context.Context, store storage.Backend, key, scratchDir string, signTTL time.Duration, requireFile bool) (*Source, error) {
	var failures []error

	if lp, ok := store.(storage.LocalPather); ok {
		if path, ok := lp.LocalPath(key); ok {
			if _, err := os.Stat(path); err == nil {
				return &Source{Input: path}, nil
			} else {
				failures = append(failures, fmt.Errorf("local path %s: %w", path, err))
			}
		}
	}

	if !requireFile {
		url, err := store.Sign(ctx, key, signTTL)
		if err == nil && url != "" {
			return &Source{Input: url}, nil
		}
		if err != nil {
			failures = append(failures, fmt.Errorf("sign: %w", err))
		}
	}

	src, err := downloadToScratch(ctx, store, key, scratchDir)
	if err != nil {
		failures = append(failures, err)
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, errors.Join(failures...))
	}
	return src, nil
}

func downloadToScratch(ctx context.Context, store storage.Backend, key, scratchDir string) (*Source, error) {
	body, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if body == nil {
		return nil, fmt.Errorf("download: object %q does not exist", key)
	}
	defer body.Close()

	tmp, err := os.CreateTemp(scratchDir, "source-*")
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("download: %w", err)
	}

	name := tmp.Name()
	return &Source{
		Input:   name,
		cleanup: func() { os.Remove(name) },
	}, nil
}
