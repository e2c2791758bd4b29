package game

import (
	"sync"
)

// Binding is what a live connection has joined.
type Binding struct {
	RoomID    string
	SessionID string
}

// ConnectionRegistry maps live connections to the room and session they
// joined. A missing entry means the connection has not joined yet.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byConn map[string]Binding
	byRoom map[string]map[string]struct{}
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byConn: make(map[string]Binding),
		byRoom: make(map[string]map[string]struct{}),
	}
}

// Bind records or overwrites the binding for connID.
func (c *ConnectionRegistry) Bind(connID, roomID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.byConn[connID]; ok && prev.RoomID != roomID {
		c.removeFromRoom(prev.RoomID, connID)
	}
	c.byConn[connID] = Binding{RoomID: roomID, SessionID: sessionID}

	conns, ok := c.byRoom[roomID]
	if !ok {
		conns = make(map[string]struct{})
		c.byRoom[roomID] = conns
	}
	conns[connID] = struct{}{}
}

func (c *ConnectionRegistry) Resolve(connID string) (Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.byConn[connID]
	return b, ok
}

// Unbind drops connID and returns what it was bound to.
func (c *ConnectionRegistry) Unbind(connID string) (Binding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.byConn[connID]
	if !ok {
		return Binding{}, false
	}
	delete(c.byConn, connID)
	c.removeFromRoom(b.RoomID, connID)
	return b, true
}

// ConnectionsIn returns the connections currently joined to roomID.
func (c *ConnectionRegistry) ConnectionsIn(roomID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	conns := c.byRoom[roomID]
	out := make([]string, 0, len(conns))
	for connID := range conns {
		out = append(out, connID)
	}
	return out
}

func (c *ConnectionRegistry) removeFromRoom(roomID, connID string) {
	conns, ok := c.byRoom[roomID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(c.byRoom, roomID)
	}
}
