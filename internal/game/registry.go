package game

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
	"github.com/scythe504/gyeongdo-backend/internal/region"
)

// RoomConfig holds the timings every new room is created with.
type RoomConfig struct {
	GameDuration    time.Duration
	TickInterval    time.Duration
	JailbreakDelay  time.Duration
	ArrestTimeLimit int
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		GameDuration:    internal.DefaultGameDuration,
		TickInterval:    internal.DefaultTickInterval,
		JailbreakDelay:  internal.DefaultJailbreakDelay,
		ArrestTimeLimit: internal.DefaultArrestTimeLimit,
	}
}

type RegistryConfig struct {
	Room          RoomConfig
	Sender        Sender
	Subscriptions *region.Subscriptions
	Sinks         []LifecycleSink
	Logger        *zap.Logger
}

// Registry owns every room for the life of the process.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	cfg       RoomConfig
	sender    Sender
	subs      *region.Subscriptions
	lifecycle *lifecycleFanout
	log       *zap.Logger
}

func NewRegistry(rc RegistryConfig) *Registry {
	if rc.Logger == nil {
		rc.Logger = zap.NewNop()
	}
	if rc.Sender == nil {
		rc.Sender = nopSender{}
	}
	if rc.Subscriptions == nil {
		rc.Subscriptions = region.NewSubscriptions()
	}
	def := DefaultRoomConfig()
	if rc.Room.GameDuration <= 0 {
		rc.Room.GameDuration = def.GameDuration
	}
	if rc.Room.TickInterval <= 0 {
		rc.Room.TickInterval = def.TickInterval
	}
	if rc.Room.JailbreakDelay <= 0 {
		rc.Room.JailbreakDelay = def.JailbreakDelay
	}
	if rc.Room.ArrestTimeLimit <= 0 {
		rc.Room.ArrestTimeLimit = def.ArrestTimeLimit
	}

	return &Registry{
		rooms:     make(map[string]*Room),
		cfg:       rc.Room,
		sender:    rc.Sender,
		subs:      rc.Subscriptions,
		lifecycle: newLifecycleFanout(rc.Sinks, rc.Logger),
		log:       rc.Logger,
	}
}

// GetOrCreate returns the room for roomID, creating it with creatorSession as
// host when it does not exist yet.
func (r *Registry) GetOrCreate(roomID, creatorSession string) *Room {
	r.mu.RLock()
	room, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if room, exists := r.rooms[roomID]; exists {
		return room
	}

	room = newRoom(roomID, creatorSession, r)
	r.rooms[roomID] = room

	r.log.Info("[GetOrCreate] created new room",
		zap.String("room_id", roomID),
		zap.String("host", creatorSession),
		zap.Duration("duration", r.cfg.GameDuration))
	return room
}

func (r *Registry) Get(roomID string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// List returns a summary of every room ordered by id.
func (r *Registry) List() []internal.RoomSummary {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	out := make([]internal.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Shutdown stops every clock and pending release, then flushes lifecycle
// sinks. Rooms stay in the map; nothing mutates them afterwards.
func (r *Registry) Shutdown() {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	for _, room := range rooms {
		room.halt()
	}
	r.lifecycle.close()
	r.log.Info("[Shutdown] registry stopped", zap.Int("rooms", len(rooms)))
}
