package provider

import (
	"path/filepath"
	"strings"
)

// Accepted upload types. Anything else is rejected before storage is touched.
var allowedContentTypes = map[string]bool{
	"video/mp4":        true,
	"video/quicktime":  true,
	"video/x-matroska": true,
	"video/webm":       true,
	"image/jpeg":       true,
	"image/png":        true,
	"image/webp":       true,
}

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func IsVideoContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}

// ValidateUpload checks name, declared type and size before any storage or
// quota work happens.
func ValidateUpload(displayName, contentType string, sizeBytes int64) error {
	if strings.TrimSpace(displayName) == "" {
		return &ValidationError{Field: "display_name", Reason: "must not be empty"}
	}
	if strings.ContainsAny(displayName, "/\\") {
		return &ValidationError{Field: "display_name", Reason: "must not contain path separators"}
	}

	ext := strings.ToLower(filepath.Ext(displayName))
	if !allowedExtensions[ext] {
		return &ValidationError{Field: "display_name", Reason: "unsupported file extension " + ext}
	}

	if !allowedContentTypes[strings.ToLower(contentType)] {
		return &ValidationError{Field: "content_type", Reason: "unsupported content type " + contentType}
	}

	if sizeBytes <= 0 {
		return &ValidationError{Field: "size", Reason: "must be greater than zero"}
	}

	return nil
}
