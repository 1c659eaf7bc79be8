// Package eventbus provides a small in-process publish/subscribe bus
// used to fan occupancy events out to observers without coupling the
// tracker to its consumers.
package eventbus

import "sync"

// Bus is a type-safe fan-out bus for events of type T. Delivery is
// best-effort: a subscriber with a full buffer misses the event rather
// than blocking the publisher.
type Bus[T any] struct {
	mu     sync.RWMutex
	next   int
	subs   map[int]chan T
	closed bool
}

// New creates an empty Bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[int]chan T)}
}

// Publish sends the event to all current subscribers without blocking.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel together
// with a cancel function that removes the subscription.
func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 16)
	b.mu.Lock()
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			if !b.closed {
				close(sub)
			}
		}
	}
	return ch, cancel
}

// Close closes every subscriber channel and rejects further publishes.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
