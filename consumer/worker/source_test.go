package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cutroom/cutroom-media-service/infra/storage"
)

type stubBackend struct {
	data     []byte
	getErr   error
	signURL  string
	signErr  error
	signHits int
	getHits  int
}

func (s *stubBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (storage.PutResult, error) {
	return storage.PutResult{Key: key}, nil
}

func (s *stubBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.getHits++
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.data == nil {
		return nil, nil
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *stubBackend) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.signHits++
	return s.signURL, s.signErr
}

func (s *stubBackend) Delete(ctx context.Context, key string) error         { return nil }
func (s *stubBackend) List(ctx context.Context, p string) ([]string, error) { return nil, nil }
func (s *stubBackend) Kind() string                                         { return "stub" }

type stubLocalBackend struct {
	stubBackend
	path string
}

func (s *stubLocalBackend) LocalPath(key string) (string, bool) { return s.path, true }

func TestAcquireSourcePrefersLocalPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.mp4")
	if err := os.WriteFile(path, []byte("frames"), 0o644); err != nil {
		t.Fatal(err)
	}

	backend := &stubLocalBackend{path: path}
	backend.signURL = "https://signed.example/should-not-be-used"

	src, err := AcquireSource(context.Background(), backend, "k", dir, time.Minute, false)
	if err != nil {
		t.Fatalf("AcquireSource: %v", err)
	}
	defer src.Cleanup()

	if src.Input != path {
		t.Fatalf("got input %q, want local path %q", src.Input, path)
	}
	if backend.signHits != 0 || backend.getHits != 0 {
		t.Fatal("local path must win without touching sign or download")
	}
}

func TestAcquireSourceFallsBackToSignedURL(t *testing.T) {
	dir := t.TempDir()
	backend := &stubLocalBackend{path: filepath.Join(dir, "does-not-exist.mp4")}
	backend.signURL = "https://signed.example/source.mp4"

	src, err := AcquireSource(context.Background(), backend, "k", dir, time.Minute, false)
	if err != nil {
		t.Fatalf("AcquireSource: %v", err)
	}
	defer src.Cleanup()

	if src.Input != backend.signURL {
		t.Fatalf("got %q, want signed URL fallback", src.Input)
	}
}

func TestAcquireSourceFallsBackToDownload(t *testing.T) {
	dir := t.TempDir()
	backend := &stubBackend{signErr: errors.New("signing disabled"), data: []byte("payload")}

	src, err := AcquireSource(context.Background(), backend, "k", dir, time.Minute, false)
	if err != nil {
		t.Fatalf("AcquireSource: %v", err)
	}

	data, err := os.ReadFile(src.Input)
	if err != nil {
		t.Fatalf("read scratch copy: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("scratch copy content %q", data)
	}

	src.Cleanup()
	if _, err := os.Stat(src.Input); !os.IsNotExist(err) {
		t.Fatal("cleanup must remove the scratch copy")
	}
}

func TestAcquireSourceRequireFileSkipsSignedURL(t *testing.T) {
	dir := t.TempDir()
	backend := &stubBackend{signURL: "https://signed.example/x", data: []byte("img")}

	src, err := AcquireSource(context.Background(), backend, "k", dir, time.Minute, true)
	if err != nil {
		t.Fatalf("AcquireSource: %v", err)
	}
	defer src.Cleanup()

	if backend.signHits != 0 {
		t.Fatal("requireFile must skip the signed URL tier")
	}
	if backend.getHits != 1 {
		t.Fatalf("want exactly one download, got %d", backend.getHits)
	}
}

func TestAcquireSourceAllTiersFail(t *testing.T) {
	dir := t.TempDir()
	backend := &stubBackend{signErr: errors.New("signing disabled"), getErr: errors.New("backend down")}

	_, err := AcquireSource(context.Background(), backend, "k", dir, time.Minute, false)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
}

func TestAcquireSourceMissingObject(t *testing.T) {
	dir := t.TempDir()
	backend := &stubBackend{signErr: errors.New("signing disabled")}

	_, err := AcquireSource(context.Background(), backend, "k", dir, time.Minute, false)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("missing object must report ErrSourceUnavailable, got %v", err)
	}
}
