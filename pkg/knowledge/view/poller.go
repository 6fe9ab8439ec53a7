package view

import (
	"context"
	"sync"
	"time"
)

// Poller refreshes a value on a fixed interval. Each tick cancels the fetch
// still in flight from the previous tick, and results are applied through a
// Sequencer so a slow response never replaces a newer one.
type Poller[T any] struct {
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	onApply  func(seq uint64, v T)
	onError  func(err error)

	state Sequencer[T]
}

// NewPoller builds a poller. onApply runs serialized and in sequence order; it
// must not call Current.
func NewPoller[T any](interval time.Duration, fetch func(ctx context.Context) (T, error), onApply func(seq uint64, v T)) *Poller[T] {
	return &Poller[T]{interval: interval, fetch: fetch, onApply: onApply}
}

// OnError registers a callback for failed fetches. Failures leave the current value in place.
func (p *Poller[T]) OnError(fn func(err error)) *Poller[T] {
	p.onError = fn
	return p
}

// Current returns the last applied value.
func (p *Poller[T]) Current() (T, uint64) {
	return p.state.Current()
}

// Run fetches immediately and then on every tick until ctx is cancelled.
// It returns only after every fetch it started has finished.
func (p *Poller[T]) Run(ctx context.Context) {
	var wg sync.WaitGroup
	var cancelPrev context.CancelFunc

	start := func() {
		if cancelPrev != nil {
			cancelPrev()
		}
		fetchCtx, cancel := context.WithCancel(ctx)
		cancelPrev = cancel
		seq := p.state.Next()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			v, err := p.fetch(fetchCtx)
			if err != nil {
				if p.onError != nil && fetchCtx.Err() == nil {
					p.onError(err)
				}
				return
			}
			var notify func()
			if p.onApply != nil {
				notify = func() { p.onApply(seq, v) }
			}
			p.state.ApplyFunc(seq, v, notify)
		}()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	start()
	for {
		select {
		case <-ctx.Done():
			if cancelPrev != nil {
				cancelPrev()
			}
			wg.Wait()
			return
		case <-ticker.C:
			start()
		}
	}
}
