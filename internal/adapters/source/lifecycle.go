package source

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/periodic"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// lifecycle implements the start-once / stop-once contract shared by every
// source. Emission holds the read side of gate so that end can wait out any
// in-flight send before reporting the source as stopped.
type lifecycle struct {
	stateMu sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc

	gate   sync.RWMutex
	closed bool

	taskMu sync.Mutex
	task   *periodic.Task

	wg  sync.WaitGroup
	seq atomic.Uint64
}

func (l *lifecycle) begin() (context.Context, error) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if l.stopped {
		return nil, ports.ErrSourceStopped
	}
	if l.started {
		return nil, ports.ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.started = true
	l.cancel = cancel
	return ctx, nil
}

func (l *lifecycle) spawn(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// every drives fn from a periodic task that end stops.
func (l *lifecycle) every(ctx context.Context, interval time.Duration, fn func(now time.Time)) {
	l.taskMu.Lock()
	defer l.taskMu.Unlock()
	l.task = periodic.Start(interval, fn)
	if ctx.Err() != nil {
		// stopped while starting
		l.task.Stop()
	}
}

func (l *lifecycle) emit(ctx context.Context, out chan<- *domain.Sample, s *domain.Sample) bool {
	l.gate.RLock()
	defer l.gate.RUnlock()
	if l.closed {
		return false
	}
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

func (l *lifecycle) stamp(s *domain.Sample, name string, now time.Time) *domain.Sample {
	s.Timestamp = now
	s.Source = name
	s.Seq = l.seq.Add(1)
	return s
}

// end cancels the source context, waits for in-flight emissions and for every
// spawned goroutine. It reports whether this call performed the shutdown.
func (l *lifecycle) end() bool {
	l.stateMu.Lock()
	if l.stopped {
		l.stateMu.Unlock()
		return false
	}
	l.stopped = true
	cancel := l.cancel
	l.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.gate.Lock()
	l.closed = true
	l.gate.Unlock()
	l.wg.Wait()

	l.taskMu.Lock()
	task := l.task
	l.taskMu.Unlock()
	task.Stop()
	return true
}

// sleepCtx waits for d or until ctx is done; false means ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
