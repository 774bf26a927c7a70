package bus

import "sync"

// MemoryBus is an in-process Bus. It delivers every published message to
// every registered handler synchronously, in the publishing goroutine.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
	closed   bool
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[int]Handler),
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (b *MemoryBus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish delivers msg to all handlers. Handlers run outside the lock so
// they may subscribe or unsubscribe without deadlocking.
func (b *MemoryBus) Publish(msg Message) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	hs := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(msg)
	}
	return nil
}

// Close drops all handlers. Subsequent publishes are no-ops.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[int]Handler)
	return nil
}
