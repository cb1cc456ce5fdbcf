package pubsub

import (
	"context"
	"sync"
)

// Published is an event together with the channel it was sent on.
type Published struct {
	Channel string
	Event   *Event
}

// MemoryBus keeps published events in memory. It backs the "memory" driver.
type MemoryBus struct {
	mu     sync.Mutex
	events []Published
	closed bool
}

// NewMemoryBus creates an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish records the event.
func (m *MemoryBus) Publish(ctx context.Context, channel string, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.events = append(m.events, Published{Channel: channel, Event: event})
	return nil
}

// Events returns a copy of everything published so far, oldest first.
func (m *MemoryBus) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.events...)
}

// Close rejects further publishes.
func (m *MemoryBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
