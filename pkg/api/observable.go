package api

import "sync"

// ObserverFunc is a catch-all callback invoked for every event a source
// raises.
type ObserverFunc func(kind any, args ...any)

// EventSource is implemented by engine components that raise events.
// AddObserver returns a function that removes the registration.
type EventSource interface {
	AddObserver(fn ObserverFunc) (unsubscribe func())
}

// Hub is a goroutine-safe EventSource. Components embed it and call Notify.
//
// Notify runs observers synchronously on the caller's goroutine, in
// registration order. Concurrent Notify calls are serialized so observers see
// a single total order of events. Observers must not call Notify on the same
// Hub.
type Hub struct {
	mu        sync.RWMutex
	notifyMu  sync.Mutex
	nextID    int
	observers []hubObserver
}

type hubObserver struct {
	id int
	fn ObserverFunc
}

var _ EventSource = (*Hub)(nil)

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) AddObserver(fn ObserverFunc) func() {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.observers = append(h.observers, hubObserver{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, o := range h.observers {
		if o.id == id {
			h.observers = append(h.observers[:i:i], h.observers[i+1:]...)
			return
		}
	}
}

// Notify delivers an event to every registered observer.
func (h *Hub) Notify(kind any, args ...any) {
	h.mu.RLock()
	obs := make([]hubObserver, len(h.observers))
	copy(obs, h.observers)
	h.mu.RUnlock()

	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()
	for _, o := range obs {
		o.fn(kind, args...)
	}
}

// Len returns the number of registered observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
