package events

import "sync"

// Handler receives emitted events. Handlers run synchronously on the emitting
// goroutine and must not block.
type Handler func(Event)

// Bus fans events out to subscribers
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
	all         []Handler
	listeners   map[uint64]Handler
	nextID      uint64
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Handler),
		listeners:   make(map[uint64]Handler),
	}
}

// Subscribe registers a handler for one event type
func (b *Bus) Subscribe(eventType EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], h)
}

// SubscribeAll registers a handler for every event type
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Listen registers a handler for every event type until the returned
// function is called. Used by short-lived consumers such as stream clients.
func (b *Bus) Listen(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Emit delivers the event to every matching subscriber
func (b *Bus) Emit(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[event.Type])+len(b.all)+len(b.listeners))
	handlers = append(handlers, b.subscribers[event.Type]...)
	handlers = append(handlers, b.all...)
	for _, h := range b.listeners {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
