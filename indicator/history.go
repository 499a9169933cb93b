package indicator

import "sync"

// History is a fixed-capacity, chronologically ordered window of samples.
// Push appends at the tail and evicts the single oldest sample once the
// window is full.
type History[S any] struct {
	mu       sync.Mutex
	samples  []S
	capacity int
}

// NewHistory returns an empty history holding at most capacity samples.
func NewHistory[S any](capacity int) (*History[S], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &History[S]{
		samples:  make([]S, 0, capacity+1),
		capacity: capacity,
	}, nil
}

// Push appends s, dropping the oldest sample if the capacity is exceeded.
func (h *History[S]) Push(s S) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, s)
	if len(h.samples) > h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.capacity]
	}
}

// Snapshot returns a copy of the samples, oldest first.
func (h *History[S]) Snapshot() []S {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]S, len(h.samples))
	copy(out, h.samples)
	return out
}

// Latest returns the newest sample, if any.
func (h *History[S]) Latest() (S, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var zero S
	if len(h.samples) == 0 {
		return zero, false
	}
	return h.samples[len(h.samples)-1], true
}

// Len returns the number of stored samples.
func (h *History[S]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.samples)
}

// Cap returns the fixed capacity.
func (h *History[S]) Cap() int {
	return h.capacity
}
