package media

import "testing"

func TestComputeExtractTimeHonorsHint(t *testing.T) {
	hint := 42.5
	if got := ComputeExtractTime(120, &hint, 10); got != 42.5 {
		t.Fatalf("got %v, want the hint 42.5", got)
	}
}

func TestComputeExtractTimeHintBeyondDuration(t *testing.T) {
	// The hint is used as given, even past the known duration.
	hint := 500.0
	if got := ComputeExtractTime(90, &hint, 10); got != 500 {
		t.Fatalf("got %v, want the hint 500", got)
	}
}

func TestComputeExtractTimeNegativeHintClampsToZero(t *testing.T) {
	negative := -3.0
	if got := ComputeExtractTime(90, &negative, 10); got != 0 {
		t.Fatalf("got %v, want negative hint clamped to 0", got)
	}
}

func TestComputeExtractTimeShortClip(t *testing.T) {
	if got := ComputeExtractTime(5, nil, 10); got != 1.5 {
		t.Fatalf("5s clip: got %v, want 1.5", got)
	}
	// 30% of a 9s clip would exceed the 2s short-clip cap.
	if got := ComputeExtractTime(9, nil, 10); got != 2 {
		t.Fatalf("9s clip: got %v, want capped at 2", got)
	}
}

func TestComputeExtractTimeMidRanges(t *testing.T) {
	if got := ComputeExtractTime(20, nil, 10); got != 3 {
		t.Fatalf("20s file: got %v, want 3", got)
	}
	if got := ComputeExtractTime(45, nil, 10); got != 5 {
		t.Fatalf("45s file: got %v, want 5", got)
	}
}

func TestComputeExtractTimeLongFileCappedAtMaxSeek(t *testing.T) {
	// 15% of 120s is 18s; the cap wins.
	if got := ComputeExtractTime(120, nil, 10); got != 10 {
		t.Fatalf("120s file: got %v, want maxSeek 10", got)
	}
	if got := ComputeExtractTime(120, nil, 30); got != 18 {
		t.Fatalf("120s file with higher cap: got %v, want 18", got)
	}
}

func TestComputeExtractTimeUnknownDuration(t *testing.T) {
	// Unknown duration is treated like a 10s clip.
	if got := ComputeExtractTime(0, nil, 10); got != 3 {
		t.Fatalf("unknown duration: got %v, want 3", got)
	}
}
