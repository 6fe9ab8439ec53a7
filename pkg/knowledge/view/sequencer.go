// Package view holds the guards that keep late responses from overwriting newer state.
package view

import "sync"

// Sequencer holds a value that is only ever replaced by a result carrying a
// higher sequence number than the one currently applied.
type Sequencer[T any] struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	value   T
}

// Next issues the sequence number for a new fetch.
func (s *Sequencer[T]) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply replaces the value if seq is newer than the last applied one and reports whether it did.
func (s *Sequencer[T]) Apply(seq uint64, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.value = v
	return true
}

// ApplyFunc is Apply that also runs fn, while still holding the lock, when v is
// accepted. Callbacks for successive sequence numbers therefore run in order.
// fn must not call back into the Sequencer.
func (s *Sequencer[T]) ApplyFunc(seq uint64, v T, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.value = v
	if fn != nil {
		fn()
	}
	return true
}

// Current returns the applied value and its sequence number (0 when nothing was applied yet).
func (s *Sequencer[T]) Current() (T, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.applied
}
