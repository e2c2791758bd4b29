package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scythe504/gyeongdo-backend/internal"
)

type sentMessage struct {
	target    string
	broadcast bool
	msg       internal.Message[any]
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *recordingSender) Broadcast(roomID string, msg internal.Message[any]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{target: roomID, broadcast: true, msg: msg})
}

func (s *recordingSender) SendTo(connID string, msg internal.Message[any]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{target: connID, msg: msg})
}

func (s *recordingSender) all() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func (s *recordingSender) ofType(eventType string) []sentMessage {
	var out []sentMessage
	for _, m := range s.all() {
		if m.msg.Type == eventType {
			out = append(out, m)
		}
	}
	return out
}

// privateTo returns messages sent directly to connID.
func (s *recordingSender) privateTo(connID string) []sentMessage {
	var out []sentMessage
	for _, m := range s.all() {
		if !m.broadcast && m.target == connID {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSender) types() []string {
	var out []string
	for _, m := range s.all() {
		out = append(out, m.msg.Type)
	}
	return out
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []internal.LifecycleEvent
}

func (s *recordingSink) Publish(_ context.Context, ev internal.LifecycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

// manualClock keeps the real ticker from firing so tests drive Tick().
func manualClock() RoomConfig {
	cfg := DefaultRoomConfig()
	cfg.TickInterval = time.Hour
	return cfg
}

func newTestRegistry(t *testing.T, cfg RoomConfig, sinks ...LifecycleSink) (*Registry, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	reg := NewRegistry(RegistryConfig{Room: cfg, Sender: sender, Sinks: sinks})
	t.Cleanup(reg.Shutdown)
	return reg, sender
}

// newPlayingRoom builds room R1 with host A as thief and B as police, started.
func newPlayingRoom(t *testing.T, cfg RoomConfig) (*Room, *recordingSender) {
	t.Helper()
	reg, sender := newTestRegistry(t, cfg)
	room := reg.GetOrCreate("R1", "A")
	require.NoError(t, room.Join("A", "alice", "conn-a"))
	require.NoError(t, room.Join("B", "bob", "conn-b"))
	require.NoError(t, room.AssignRole("A", "B", internal.TeamPolice))
	require.NoError(t, room.AssignRole("A", "A", internal.TeamThief))
	require.NoError(t, room.Start("A"))
	sender.reset()
	return room, sender
}
