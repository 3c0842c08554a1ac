// Package periodic runs a callback on a fixed cadence with a single, blocking
// stop operation.
package periodic

import (
	"sync"
	"time"
)

// Task is a running ticker loop. The zero value is not usable; use Start.
type Task struct {
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Start calls fn every interval until Stop. A non-positive interval is
// treated as one millisecond.
func Start(interval time.Duration, fn func(now time.Time)) *Task {
	if interval <= 0 {
		interval = time.Millisecond
	}
	t := &Task{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go t.loop(interval, fn)
	return t
}

func (t *Task) loop(interval time.Duration, fn func(time.Time)) {
	defer close(t.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case now := <-ticker.C:
			// a tick and a stop may be ready together; stop wins
			select {
			case <-t.stopCh:
				return
			default:
			}
			fn(now)
		}
	}
}

// Stop prevents further callbacks and waits for an in-flight one to finish.
// It must not be called from inside the callback.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() { close(t.stopCh) })
	<-t.doneCh
}

// Done is closed once the loop has exited.
func (t *Task) Done() <-chan struct{} {
	return t.doneCh
}
