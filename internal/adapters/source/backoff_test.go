package source

import (
	"testing"
	"time"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2}

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for attempt, w := range want {
		if got := b.Next(attempt); got != w {
			t.Fatalf("attempt %d: got %s, want %s", attempt, got, w)
		}
	}
}

func TestBackoffDefaults(t *testing.T) {
	var b Backoff
	if got := b.Next(0); got != 500*time.Millisecond {
		t.Fatalf("expected default initial 500ms, got %s", got)
	}
	if got := b.Next(50); got != 30*time.Second {
		t.Fatalf("expected default cap 30s, got %s", got)
	}
}
