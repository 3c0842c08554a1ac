// Package buffer holds the fixed-capacity windows the dashboard redraws from.
package buffer

import "sync"

// Rolling keeps the most recent Cap() values in push order. Pushing onto a
// full buffer evicts the oldest value.
type Rolling[T any] struct {
	mu    sync.Mutex
	data  []T
	start int
	n     int
}

// NewRolling allocates a window of the given capacity; values below 1 are
// raised to 1.
func NewRolling[T any](capacity int) *Rolling[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Rolling[T]{data: make([]T, capacity)}
}

func (r *Rolling[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushLocked(v)
}

func (r *Rolling[T]) pushLocked(v T) {
	c := len(r.data)
	if r.n < c {
		r.data[(r.start+r.n)%c] = v
		r.n++
		return
	}
	r.data[r.start] = v
	r.start = (r.start + 1) % c
}

// Fill replaces the contents with Cap() copies of v.
func (r *Rolling[T]) Fill(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.data {
		r.data[i] = v
	}
	r.start = 0
	r.n = len(r.data)
}

// Snapshot returns the contents oldest first without mutating the buffer.
func (r *Rolling[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, r.n)
	c := len(r.data)
	for i := 0; i < r.n; i++ {
		out[i] = r.data[(r.start+i)%c]
	}
	return out
}

// Last returns the newest value; ok is false when the buffer is empty.
func (r *Rolling[T]) Last() (v T, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == 0 {
		return v, false
	}
	return r.data[(r.start+r.n-1)%len(r.data)], true
}

func (r *Rolling[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func (r *Rolling[T]) Cap() int {
	return len(r.data)
}
