package queue

import (
	"sync"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

// MemQueue is a bounded FIFO of journaled capture entries waiting for the
// archive sink.
type MemQueue struct {
	mu    sync.Mutex
	data  []ports.QueuedEntry
	cap   int
	ready chan struct{}
}

var _ ports.EntryQueue = (*MemQueue)(nil)

func NewMemQueue(capacity int) *MemQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemQueue{
		data:  make([]ports.QueuedEntry, 0, capacity),
		cap:   capacity,
		ready: make(chan struct{}, 1),
	}
}

// Enqueue reports false when the queue is full.
func (q *MemQueue) Enqueue(id ports.EntryID, e *domain.CaptureEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, ports.QueuedEntry{ID: id, Entry: e})
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

func (q *MemQueue) DequeueBatch(max int) []ports.QueuedEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]ports.QueuedEntry, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

// Clear drops everything queued, used when the capture log is reset.
func (q *MemQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.data)
	q.data = q.data[:0]
	return n
}

// Ready receives a value after an enqueue into a queue the consumer may have
// found empty. It never blocks producers.
func (q *MemQueue) Ready() <-chan struct{} {
	return q.ready
}
