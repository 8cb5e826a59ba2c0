package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ExtractionError wraps a failed ffmpeg/ffprobe invocation with the captured
// stderr so job logs show what the tool actually complained about.
type ExtractionError struct {
	Stage  string
	Err    error
	Stderr string
}

func (e *ExtractionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("media %s failed: %v: %s", e.Stage, e.Err, e.Stderr)
	}
	return fmt.Sprintf("media %s failed: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type ProbeResult struct {
	DurationSeconds float64
	Width           int
	Height          int
}

// Resolution renders "WxH", or "" when the probe found no video stream.
func (p ProbeResult) Resolution() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

type ffprobeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads duration and frame size with ffprobe. The timeout is mandatory;
// a truncated or still-uploading file can make ffprobe hang on some demuxers.
func Probe(ctx context.Context, path string, timeout time.Duration) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExtractionError{Stage: "probe", Err: err, Stderr: stderr.String()}
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, &ExtractionError{Stage: "probe", Err: err}
	}

	result := &ProbeResult{}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil && d > 0 {
		result.DurationSeconds = d
	}
	if len(out.Streams) > 0 {
		result.Width = out.Streams[0].Width
		result.Height = out.Streams[0].Height
	}
	return result, nil
}

// ExtractFrame writes a single JPEG frame taken at seekSeconds into dstPath,
// scaled to the given width with the height following the aspect ratio. The
// even-height constraint keeps the scaler happy on yuv420 sources.
func ExtractFrame(ctx context.Context, srcPath, dstPath string, seekSeconds float64, width int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(seekSeconds, 'f', 3, 64),
		"-i", srcPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-q:v", "3",
		"-y",
		dstPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ExtractionError{Stage: "extract", Err: err, Stderr: stderr.String()}
	}
	return nil
}
