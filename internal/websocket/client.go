package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scythe504/gyeongdo-backend/internal"
)

// Client is one websocket connection.
type Client struct {
	id      string
	conn    *websocket.Conn
	hub     *Hub
	send    chan []byte
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

func newClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:      id,
		conn:    conn,
		hub:     hub,
		send:    make(chan []byte, hub.cfg.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(hub.cfg.RatePerSecond), hub.cfg.RatePerSecond),
	}
}

// enqueue reports false when the send buffer is full.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// readPump decodes frames and dispatches them in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	pongWait := c.hub.cfg.PingInterval * 2
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("[readPump] read error", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			c.reject("", "rate limit exceeded", "rate_limited")
			continue
		}

		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
			c.reject("", "malformed message", "invalid_argument")
			continue
		}

		if c.hub.dispatch == nil {
			continue
		}
		if err := c.hub.dispatch.Dispatch(context.Background(), c.id, msg); err != nil {
			c.hub.log.Debug("[readPump] dispatch failed",
				zap.String("conn_id", c.id), zap.String("event", msg.Type), zap.Error(err))
		}
	}
}

func (c *Client) reject(eventType, text, code string) {
	c.hub.SendTo(c.id, internal.Message[any]{
		Type: internal.EventError,
		Data: internal.ErrorData{Message: text, Code: code, Event: eventType},
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteDeadline))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.hub.log.Debug("[writePump] write failed", zap.String("conn_id", c.id), zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
