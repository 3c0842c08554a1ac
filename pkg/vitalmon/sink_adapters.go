package vitalmon

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("vitalmon: channel sink closed")

// EntryBatchSink is invoked with ordered batches of captured entries.
type EntryBatchSink func([]CaptureEntry) error

// NewCallbackSink adapts an EntryBatchSink into a full Sink implementation so
// callers can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn EntryBatchSink) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes batches via a channel; it returns the sink, the
// read-only channel, and a close function the caller should invoke during
// shutdown.
func NewChannelSink(name string, buffer int) (Sink, <-chan []CaptureEntry, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []CaptureEntry, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   EntryBatchSink
}

func (s *callbackSink) WriteBatch(entries []*domain.CaptureEntry) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(entries) == 0 {
		return nil
	}
	return s.fn(copyBatch(entries))
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []CaptureEntry
	closed chan struct{}
	once   sync.Once

	// sending is held for reading by writers so close never races a send.
	sending sync.RWMutex
}

func (s *channelSink) WriteBatch(entries []*domain.CaptureEntry) error {
	s.sending.RLock()
	defer s.sending.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if len(entries) == 0 {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- copyBatch(entries):
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.sending.Lock()
		close(s.ch)
		s.sending.Unlock()
	})
}

func copyBatch(entries []*domain.CaptureEntry) []CaptureEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]CaptureEntry, len(entries))
	for i, e := range entries {
		out[i] = CaptureEntry{Timestamp: e.Timestamp, Sample: *e.Sample.Clone()}
	}
	return out
}
