// Package events provides the ordered publish/subscribe primitive shared by
// adapters, controls and the facade.
package events

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Listener receives one event.
type Listener[E any] func(E)

// Subscription is the handle returned by Subscribe. Closing it detaches the
// listener; no event dequeued after Close returns reaches it.
type Subscription struct {
	closed atomic.Bool
	detach func()
}

func (s *Subscription) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.detach != nil {
		s.detach()
	}
}

func (s *Subscription) Closed() bool {
	return s == nil || s.closed.Load()
}

type entry[E any] struct {
	sub *Subscription
	fn  Listener[E]
}

// Emitter delivers events to listeners in emission order. Only one goroutine
// drains the queue at a time; an Emit issued while another Emit is draining
// (from a listener or from another goroutine) is queued behind it, so every
// event is fully dispatched before the next one starts.
//
// The zero value is ready to use.
type Emitter[E any] struct {
	mu       sync.Mutex
	entries  []*entry[E]
	queue    []E
	draining bool
}

func (e *Emitter[E]) Subscribe(fn Listener[E]) *Subscription {
	en := &entry[E]{fn: fn}
	sub := &Subscription{}
	sub.detach = func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.entries = slices.DeleteFunc(e.entries, func(other *entry[E]) bool {
			return other == en
		})
	}
	en.sub = sub

	e.mu.Lock()
	e.entries = append(e.entries, en)
	e.mu.Unlock()
	return sub
}

func (e *Emitter[E]) Emit(ev E) {
	e.Post(ev)
	e.Flush()
}

// Post queues events without delivering them. Callers that need several
// producers to agree on an order Post under their own lock and Flush after
// releasing it.
func (e *Emitter[E]) Post(evs ...E) {
	if len(evs) == 0 {
		return
	}
	e.mu.Lock()
	e.queue = append(e.queue, evs...)
	e.mu.Unlock()
}

// Flush delivers queued events unless another goroutine is already doing so.
func (e *Emitter[E]) Flush() {
	e.mu.Lock()
	if e.draining || len(e.queue) == 0 {
		e.mu.Unlock()
		return
	}
	e.draining = true
	e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.mu.Lock()
			e.draining = false
			e.queue = nil
			e.mu.Unlock()
			panic(r)
		}
	}()

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			e.mu.Unlock()
			return
		}
		next := e.queue[0]
		e.queue = e.queue[1:]
		entries := slices.Clone(e.entries)
		e.mu.Unlock()

		for _, en := range entries {
			if en.sub.Closed() {
				continue
			}
			en.fn(next)
		}
	}
}

// Len returns the number of attached listeners.
func (e *Emitter[E]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Clear detaches every listener.
func (e *Emitter[E]) Clear() {
	e.mu.Lock()
	entries := e.entries
	e.entries = nil
	e.mu.Unlock()

	for _, en := range entries {
		en.sub.closed.Store(true)
	}
}
