package media

import (
	"github.com/disintegration/imaging"
)

// MakeImageThumbnail decodes an image asset from srcPath and writes a JPEG
// thumbnail at most width pixels wide to dstPath, preserving aspect ratio.
func MakeImageThumbnail(srcPath, dstPath string, width int) error {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return &ExtractionError{Stage: "decode", Err: err}
	}

	thumb := imaging.Fit(img, width, width*4, imaging.Lanczos)

	if err := imaging.Save(thumb, dstPath, imaging.JPEGQuality(85)); err != nil {
		return &ExtractionError{Stage: "encode", Err: err}
	}
	return nil
}
