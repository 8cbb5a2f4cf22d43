// Package broadcast fans values out to every live subscriber without ever
// blocking the publisher.
package broadcast

import "sync"

const defaultBuffer = 16

// Hub is an in-process publish/subscribe channel. There is no replay: a
// subscriber sees only what is published after it subscribed.
type Hub[T any] struct {
	mu     sync.RWMutex
	subs   map[*Subscription[T]]struct{}
	buffer int
}

func NewHub[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub[T]{
		subs:   make(map[*Subscription[T]]struct{}),
		buffer: buffer,
	}
}

// Subscription is one listener. Events is closed after Close.
type Subscription[T any] struct {
	hub       *Hub[T]
	events    chan T
	closeOnce sync.Once
}

func (h *Hub[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		hub:    h,
		events: make(chan T, h.buffer),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (s *Subscription[T]) Events() <-chan T {
	return s.events
}

// Close detaches the subscription. Calling it more than once is a no-op.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.events)
		s.hub.mu.Unlock()
	})
}

// Publish offers v to every subscriber and returns how many accepted it. A
// subscriber whose buffer is full misses v.
func (h *Hub[T]) Publish(v T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs {
		select {
		case sub.events <- v:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers reports the number of live subscriptions.
func (h *Hub[T]) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
