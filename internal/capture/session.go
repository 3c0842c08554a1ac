// Package capture records user-controlled snapshots of the last-known sample.
package capture

import (
	"sync"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/periodic"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

type State int

const (
	Idle State = iota
	Capturing
)

func (s State) String() string {
	if s == Capturing {
		return "capturing"
	}
	return "idle"
}

type Option func(*Session)

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.clock = now }
}

// WithOnEntry registers a hook called, outside the session lock, with every
// appended entry. The hook runs on the capture goroutine and must not call
// Stop or Toggle.
func WithOnEntry(fn func(domain.CaptureEntry)) Option {
	return func(s *Session) { s.onEntry = fn }
}

func WithObservability(obs ports.Observability) Option {
	return func(s *Session) { s.obs = observability.OrNop(obs) }
}

// Session owns the last-known sample and the capture log.
type Session struct {
	mu       sync.Mutex
	state    State
	interval time.Duration
	gen      uint64
	task     *periodic.Task
	last     *domain.Sample
	log      []domain.CaptureEntry

	clock   func() time.Time
	onEntry func(domain.CaptureEntry)
	obs     ports.Observability
}

func NewSession(opts ...Option) *Session {
	s := &Session{clock: time.Now, obs: observability.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins appending a snapshot every intervalMs milliseconds. An invalid
// interval leaves the state unchanged.
func (s *Session) Start(intervalMs int) error {
	d, err := toDuration(intervalMs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Capturing {
		return ErrAlreadyCapturing
	}
	s.state = Capturing
	s.interval = d
	s.gen++
	gen := s.gen
	s.task = periodic.Start(d, func(time.Time) { s.tick(gen) })

	s.obs.LogInfo("capture_started", ports.Field{Key: "interval_ms", Value: intervalMs})
	return nil
}

// Stop halts capturing and keeps the log. When it returns no further entry
// is appended.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.state = Idle
	task := s.task
	s.task = nil
	n := len(s.log)
	s.mu.Unlock()

	task.Stop()
	s.obs.LogInfo("capture_stopped", ports.Field{Key: "entries", Value: n})
}

// Toggle mirrors the single start/stop button: it stops a running capture or
// starts one with intervalMs.
func (s *Session) Toggle(intervalMs int) (State, error) {
	if s.State() == Capturing {
		s.Stop()
		return Idle, nil
	}
	if err := s.Start(intervalMs); err != nil {
		return s.State(), err
	}
	return Capturing, nil
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if s.state != Capturing || s.gen != gen || s.last == nil {
		s.mu.Unlock()
		return
	}
	e := domain.NewCaptureEntry(s.clock(), s.last)
	s.log = append(s.log, e)
	hook := s.onEntry
	s.mu.Unlock()

	s.obs.IncCounter(observability.CaptureEntries, 1)
	if hook != nil {
		hook(e)
	}
}

// Observe folds a new sample into the last-known one. It is the only writer
// of the last-known sample.
func (s *Session) Observe(smp *domain.Sample) *domain.Sample {
	if smp == nil {
		return s.Last()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = domain.Merge(s.last, smp)
	return s.last.Clone()
}

// Last returns a copy of the last-known sample, or nil before the first one.
func (s *Session) Last() *domain.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

// Log returns a copy of the capture log in append order.
func (s *Session) Log() []domain.CaptureEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CaptureEntry, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Interval is the interval of the running or most recent capture.
func (s *Session) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Reset empties the log without touching the capture state.
func (s *Session) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.log)
	s.log = nil
	return n
}

// Restore puts previously journaled entries in front of the current log.
func (s *Session) Restore(entries []domain.CaptureEntry) {
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	restored := make([]domain.CaptureEntry, 0, len(entries)+len(s.log))
	restored = append(restored, entries...)
	s.log = append(restored, s.log...)
}
