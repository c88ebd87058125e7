// Package signal carries the cross-view "new order" broadcast between order
// sessions and kitchen displays. Delivery is at-least-once and unordered;
// subscribers must treat a signal as a hint to re-poll, never as data.
package signal

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handler receives the id of a newly submitted order. The payload is
// advisory only; duplicates and late arrivals are expected.
type Handler func(orderID uuid.UUID)

// Bus broadcasts new-order signals to all subscribers.
type Bus interface {
	Publish(ctx context.Context, orderID uuid.UUID) error
	// Subscribe registers a handler and returns a function that removes it.
	Subscribe(h Handler) (unsubscribe func())
}

// subscriber fans signals out through a buffered channel so a slow handler
// cannot block Publish.
type subscriber struct {
	ch   chan uuid.UUID
	done chan struct{}
}

// InProcessBus is the single-process Bus used when all displays share one
// server. Signals to a subscriber whose buffer is full are dropped; the
// subscriber's next interval poll covers the loss.
type InProcessBus struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewInProcessBus creates an empty in-process bus.
func NewInProcessBus() *InProcessBus {
	return &InProcessBus{subs: make(map[*subscriber]struct{})}
}

// Publish delivers orderID to every current subscriber.
func (b *InProcessBus) Publish(_ context.Context, orderID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.ch <- orderID:
		default:
		}
	}
	return nil
}

// Subscribe starts a goroutine dispatching signals to h until the returned
// unsubscribe function is called.
func (b *InProcessBus) Subscribe(h Handler) func() {
	sub := &subscriber{
		ch:   make(chan uuid.UUID, 16),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		for {
			select {
			case id := <-sub.ch:
				h(id)
			case <-sub.done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			close(sub.done)
		})
	}
}
