package vitalmon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

var (
	// ErrPublisherStopped is returned by Publish once the publisher is stopped.
	ErrPublisherStopped = errors.New("vitalmon: publisher stopped")
	// ErrPublisherNotStarted is returned by Publish before the runtime started
	// the publisher.
	ErrPublisherNotStarted = errors.New("vitalmon: publisher not started")
)

// Publisher is an in-process SampleSource: the embedding program pushes
// samples with Publish. Pass it to the runtime with WithSource.
type Publisher struct {
	mu       sync.RWMutex
	out      chan<- *Sample
	stopped  bool
	done     chan struct{}
	stopOnce sync.Once
	seq      atomic.Uint64
	now      func() time.Time
}

var _ ports.SampleSource = (*Publisher)(nil)

func NewPublisher() *Publisher {
	return &Publisher{done: make(chan struct{}), now: time.Now}
}

func (p *Publisher) Start(out chan<- *Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ports.ErrSourceStopped
	}
	if p.out != nil {
		return ports.ErrAlreadyStarted
	}
	p.out = out
	return nil
}

// Stop releases blocked Publish calls. Once it returns nothing more is sent.
func (p *Publisher) Stop() error {
	p.stopOnce.Do(func() { close(p.done) })
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	return nil
}

// Publish hands a copy of s to the runtime, stamping Timestamp when zero and
// the sequence number. It blocks while the acquisition buffer is full.
func (p *Publisher) Publish(ctx context.Context, s Sample) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPublisherStopped
	}
	if p.out == nil {
		return ErrPublisherNotStarted
	}

	c := s.Clone()
	if c.Timestamp.IsZero() {
		c.Timestamp = p.now()
	}
	if c.Source == "" {
		c.Source = "publisher"
	}
	c.Seq = p.seq.Add(1)

	select {
	case p.out <- c:
		return nil
	case <-p.done:
		return ErrPublisherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
