package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
)

// =============================================================================
// HUB
// =============================================================================

// Dispatcher is the game side of a connection.
type Dispatcher interface {
	Connect(connID string)
	Dispatch(ctx context.Context, connID string, msg internal.Message[json.RawMessage]) error
	Disconnect(connID string)
}

// RoomMembers lists the connections currently bound to a room.
type RoomMembers interface {
	ConnectionsIn(roomID string) []string
}

type Config struct {
	PingInterval   time.Duration
	WriteDeadline  time.Duration
	MaxMessageSize int64
	SendBuffer     int
	RatePerSecond  int

	// Optional instruments; unregistered ones are used when nil.
	Connections prometheus.Gauge
	Dropped     prometheus.Counter
}

func DefaultConfig() Config {
	return Config{
		PingInterval:   25 * time.Second,
		WriteDeadline:  10 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     256,
		RatePerSecond:  20,
	}
}

// Hub owns every live socket and implements game.Sender. Sends only enqueue,
// so callers holding a room lock never wait on the network.
type Hub struct {
	cfg      Config
	members  RoomMembers
	dispatch Dispatcher
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(cfg Config, members RoomMembers, logger *zap.Logger) *Hub {
	def := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.WriteDeadline <= 0 {
		cfg.WriteDeadline = def.WriteDeadline
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.Connections == nil {
		cfg.Connections = prometheus.NewGauge(prometheus.GaugeOpts{Name: "ws_active_connections"})
	}
	if cfg.Dropped == nil {
		cfg.Dropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "ws_dropped_clients_total"})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		cfg:     cfg,
		members: members,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     logger,
		clients: make(map[string]*Client),
	}
}

// Attach sets the dispatcher. It must be called before serving.
func (h *Hub) Attach(d Dispatcher) {
	h.dispatch = d
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("[ServeWS] upgrade failed", zap.Error(err))
		return
	}

	c := newClient(uuid.NewString(), conn, h)
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.cfg.Connections.Inc()

	h.log.Info("[ServeWS] client connected", zap.String("conn_id", c.id))
	if h.dispatch != nil {
		h.dispatch.Connect(c.id)
	}

	go c.writePump()
	c.readPump()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.cfg.Connections.Dec()

	c.close()
	if h.dispatch != nil {
		h.dispatch.Disconnect(c.id)
	}
	h.log.Info("[unregister] client disconnected", zap.String("conn_id", c.id))
}

// Len returns the number of live sockets.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// =============================================================================
// SENDER
// =============================================================================

func (h *Hub) Broadcast(roomID string, msg internal.Message[any]) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("[Broadcast] marshal failed", zap.String("event", msg.Type), zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for _, connID := range h.members.ConnectionsIn(roomID) {
		c, ok := h.clients[connID]
		if !ok {
			continue
		}
		if !c.enqueue(payload) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("[Broadcast] send buffer full, dropping client",
			zap.String("room_id", roomID), zap.String("conn_id", c.id))
		h.cfg.Dropped.Inc()
		go h.unregister(c)
	}
}

func (h *Hub) SendTo(connID string, msg internal.Message[any]) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("[SendTo] marshal failed", zap.String("event", msg.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if !c.enqueue(payload) {
		h.log.Warn("[SendTo] send buffer full, dropping client", zap.String("conn_id", connID))
		h.cfg.Dropped.Inc()
		go h.unregister(c)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}
