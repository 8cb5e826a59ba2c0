package produce

import (
	"testing"
	"time"
)

func TestFixedBackoffIsConstant(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BackoffKind: "fixed", BaseDelay: 2 * time.Second}

	for attempt := 1; attempt <= 5; attempt++ {
		if got := p.Delay(attempt); got != 2*time.Second {
			t.Fatalf("attempt %d: got %v, want 2s", attempt, got)
		}
	}
}

func TestExponentialBackoffStrictlyIncreases(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BackoffKind: "exponential", BaseDelay: time.Second}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	prev := time.Duration(0)
	for i, attempt := range []int{1, 2, 3, 4} {
		got := p.Delay(attempt)
		if got != want[i] {
			t.Fatalf("attempt %d: got %v, want %v", attempt, got, want[i])
		}
		if got <= prev {
			t.Fatalf("delay must strictly increase: attempt %d got %v after %v", attempt, got, prev)
		}
		prev = got
	}
}

func TestDelayClampsNonPositiveAttempt(t *testing.T) {
	p := RetryPolicy{BackoffKind: "exponential", BaseDelay: time.Second}
	if got := p.Delay(0); got != time.Second {
		t.Fatalf("attempt 0 should behave like attempt 1, got %v", got)
	}
}
