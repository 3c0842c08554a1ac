package periodic

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTaskTicksUntilStopped(t *testing.T) {
	var calls atomic.Int32
	task := Start(time.Millisecond, func(time.Time) { calls.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 ticks, got %d", calls.Load())
		}
		time.Sleep(time.Millisecond)
	}

	task.Stop()
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if got := calls.Load(); got != after {
		t.Fatalf("callback ran after Stop: %d -> %d", after, got)
	}

	select {
	case <-task.Done():
	default:
		t.Fatalf("expected Done to be closed after Stop")
	}
}

func TestTaskStopIsIdempotent(t *testing.T) {
	task := Start(time.Hour, func(time.Time) {})
	task.Stop()
	task.Stop()

	var nilTask *Task
	nilTask.Stop()
}
