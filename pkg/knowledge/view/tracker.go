package view

import "sync"

// Ticket identifies one detail fetch for one selected document.
type Ticket struct {
	DocumentID string
	Seq        uint64
}

// Tracker keeps the detail of the currently selected document. A result is
// accepted only if it was requested by the latest selection.
type Tracker[T any] struct {
	mu       sync.Mutex
	current  Ticket
	value    T
	hasValue bool
}

// Select makes id the selected document, clears the previous detail and returns
// the ticket the fetch must present to Apply.
func (t *Tracker[T]) Select(id string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = Ticket{DocumentID: id, Seq: t.current.Seq + 1}
	var zero T
	t.value = zero
	t.hasValue = false
	return t.current
}

// Clear drops the selection. Every outstanding ticket becomes stale.
func (t *Tracker[T]) Clear() {
	t.Select("")
}

// Apply stores v if ticket is still the latest selection.
func (t *Tracker[T]) Apply(ticket Ticket, v T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ticket != t.current || ticket.DocumentID == "" {
		return false
	}
	t.value = v
	t.hasValue = true
	return true
}

// ApplyFunc is Apply that also runs fn under the tracker lock when v is accepted,
// so a concurrent Select cannot slip in between storing and publishing. fn must
// not call back into the Tracker.
func (t *Tracker[T]) ApplyFunc(ticket Ticket, v T, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ticket != t.current || ticket.DocumentID == "" {
		return false
	}
	t.value = v
	t.hasValue = true
	if fn != nil {
		fn()
	}
	return true
}

// IfCurrent runs fn under the tracker lock if ticket still names the latest selection.
func (t *Tracker[T]) IfCurrent(ticket Ticket, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ticket != t.current || ticket.DocumentID == "" {
		return false
	}
	fn()
	return true
}

func (t *Tracker[T]) Current() (string, T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current.DocumentID, t.value, t.hasValue
}
