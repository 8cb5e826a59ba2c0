package media

// ComputeExtractTime picks the timestamp the representative frame is pulled
// from. A caller-supplied hint is used directly, clamped only to zero; the
// extraction tool handles a seek past the end of the file. Without a hint the
// seek scales with duration so short clips are not sampled at a black lead-in
// and long files are not seeked minutes deep, capped at maxSeek. Files whose
// duration the probe could not determine are treated as short clips.
func ComputeExtractTime(durationSeconds float64, hint *float64, maxSeek float64) float64 {
	if hint != nil {
		if *hint < 0 {
			return 0
		}
		return *hint
	}

	d := durationSeconds
	if d <= 0 {
		d = 10
	}

	switch {
	case d < 10:
		t := 0.3 * d
		if t > 2 {
			t = 2
		}
		return t
	case d < 30:
		return 3
	case d < 60:
		return 5
	default:
		t := 0.15 * d
		if t < 5 {
			t = 5
		}
		if t > maxSeek {
			t = maxSeek
		}
		return t
	}
}
