package provider

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewStorageKeyLayout(t *testing.T) {
	tenant := uuid.New()
	project := uuid.New()

	key := NewStorageKey(tenant, project, "Final Cut v3.MP4")

	parts := strings.Split(key, "/")
	if len(parts) != 4 {
		t.Fatalf("key %q: want 4 path segments, got %d", key, len(parts))
	}
	if parts[0] != tenant.String() || parts[1] != project.String() {
		t.Fatalf("key %q: tenant/project prefix mismatch", key)
	}
	if parts[3] != "source.mp4" {
		t.Fatalf("key %q: want lowercased source.mp4 leaf, got %q", key, parts[3])
	}
}

func TestNewStorageKeyUniquePerCall(t *testing.T) {
	tenant := uuid.New()
	project := uuid.New()

	a := NewStorageKey(tenant, project, "clip.mp4")
	b := NewStorageKey(tenant, project, "clip.mp4")
	if a == b {
		t.Fatalf("two uploads of the same name must get distinct keys, both got %q", a)
	}
}

func TestThumbnailKeyDeterministic(t *testing.T) {
	src := "t1/p1/1234_abcd/source.mov"

	first := ThumbnailKey(src)
	second := ThumbnailKey(src)
	if first != second {
		t.Fatalf("thumbnail key must be deterministic: %q vs %q", first, second)
	}
	if first != "t1/p1/1234_abcd/thumb.jpg" {
		t.Fatalf("got %q, want sibling thumb.jpg", first)
	}
}

func TestThumbnailKeyDistinctAcrossAssets(t *testing.T) {
	tenant := uuid.New()
	project := uuid.New()

	a := ThumbnailKey(NewStorageKey(tenant, project, "clip.mp4"))
	b := ThumbnailKey(NewStorageKey(tenant, project, "clip.mp4"))
	if a == b {
		t.Fatalf("thumbnails of distinct assets must not collide, both got %q", a)
	}
}
