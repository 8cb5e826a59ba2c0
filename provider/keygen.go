package provider

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewStorageKey builds the object key for an uploaded source file. Every
// asset gets its own directory, so derived objects can live next to the
// source without colliding across assets:
//
//	{tenant}/{project}/{unixnano}_{token}/source{ext}
func NewStorageKey(tenantID, projectID uuid.UUID, displayName string) string {
	ext := strings.ToLower(path.Ext(displayName))
	token := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s/%s/%d_%s/source%s",
		tenantID.String(), projectID.String(), time.Now().UnixNano(), token, ext)
}

// ThumbnailKey derives the thumbnail object key from a source key. The result
// is deterministic, so a retried job overwrites its own earlier write instead
// of accumulating copies.
func ThumbnailKey(storageKey string) string {
	return path.Join(path.Dir(storageKey), "thumb.jpg")
}
