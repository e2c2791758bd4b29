package region

import (
	"sync"
)

// Subscriptions holds one handler per connection. Delivery to a connection
// without a handler is dropped.
type Subscriptions struct {
	mu       sync.RWMutex
	handlers map[string]func(Event)
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{handlers: make(map[string]func(Event))}
}

// Subscribe installs fn for connID, replacing an earlier handler for the
// same connection only.
func (s *Subscriptions) Subscribe(connID string, fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[connID] = fn
}

func (s *Subscriptions) Unsubscribe(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, connID)
}

func (s *Subscriptions) Deliver(connID string, ev Event) bool {
	s.mu.RLock()
	fn, ok := s.handlers[connID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	fn(ev)
	return true
}

func (s *Subscriptions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}
