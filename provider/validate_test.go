package provider

import (
	"errors"
	"testing"
)

func TestValidateUploadAccepted(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
	}{
		{"interview.mp4", "video/mp4"},
		{"b-roll.MOV", "video/quicktime"},
		{"poster.png", "image/png"},
	}
	for _, tc := range cases {
		if err := ValidateUpload(tc.name, tc.contentType, 1024); err != nil {
			t.Fatalf("%s (%s): unexpected rejection: %v", tc.name, tc.contentType, err)
		}
	}
}

func TestValidateUploadRejected(t *testing.T) {
	cases := []struct {
		label       string
		name        string
		contentType string
		size        int64
	}{
		{"empty name", "", "video/mp4", 1024},
		{"path separator", "../escape.mp4", "video/mp4", 1024},
		{"bad extension", "payload.exe", "video/mp4", 1024},
		{"bad content type", "clip.mp4", "application/octet-stream", 1024},
		{"zero size", "clip.mp4", "video/mp4", 0},
	}
	for _, tc := range cases {
		err := ValidateUpload(tc.name, tc.contentType, tc.size)
		if err == nil {
			t.Fatalf("%s: expected rejection", tc.label)
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected ValidationError, got %T", tc.label, err)
		}
	}
}

func TestIsVideoContentType(t *testing.T) {
	if !IsVideoContentType("video/mp4") {
		t.Fatal("video/mp4 is a video type")
	}
	if IsVideoContentType("image/png") {
		t.Fatal("image/png is not a video type")
	}
}
