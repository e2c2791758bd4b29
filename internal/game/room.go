package game

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
	"github.com/scythe504/gyeongdo-backend/internal/region"
)

// =============================================================================
// ROOM
// =============================================================================

// Room is one isolated game. Every exported method takes mu for its whole
// duration, so player actions, clock ticks and jailbreak releases never
// interleave.
type Room struct {
	ID string

	mu      sync.Mutex
	host    string
	players internal.Roster
	state   internal.GameState

	clock         *gameClock
	runningClocks atomic.Int32
	releases      map[uint64]*time.Timer
	nextReleaseID uint64
	halted        bool

	cfg       RoomConfig
	sender    Sender
	lifecycle *lifecycleFanout
	fence     *region.Geofence
	log       *zap.Logger
}

func newRoom(roomID, creatorSession string, reg *Registry) *Room {
	return &Room{
		ID:      roomID,
		host:    creatorSession,
		players: make(internal.Roster),
		state: internal.GameState{
			Status:        internal.PhaseWaiting,
			RemainingTime: int(reg.cfg.GameDuration / time.Second),
			Winner:        internal.WinnerNone,
		},
		releases:  make(map[uint64]*time.Timer),
		cfg:       reg.cfg,
		sender:    reg.sender,
		lifecycle: reg.lifecycle,
		fence:     region.NewGeofence(reg.subs),
		log:       reg.log.With(zap.String("room_id", roomID)),
	}
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

func (r *Room) IsHost(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host == sessionID
}

func (r *Room) Host() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

func (r *Room) State() internal.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Player returns a copy of the player entry for sessionID.
func (r *Room) Player(sessionID string) (internal.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players.Get(sessionID)
	if !ok {
		return internal.Player{}, false
	}
	return *p, true
}

// ConnectedVia reports whether connID is the latest connection of sessionID.
func (r *Room) ConnectedVia(sessionID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players.Get(sessionID)
	return ok && connID != "" && p.ConnID == connID
}

// detach clears sessionID's connection if it is still connID and reports
// whether it was.
func (r *Room) detach(sessionID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fence.Forget(connID)
	p, ok := r.players.Get(sessionID)
	if !ok || p.ConnID != connID {
		return false
	}
	p.ConnID = ""
	return true
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Room) ClockArmed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock != nil
}

// RunningClocks counts clock goroutines that have not exited yet.
func (r *Room) RunningClocks() int {
	return int(r.runningClocks.Load())
}

func (r *Room) PendingReleases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.releases)
}

func (r *Room) Summary() internal.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return internal.RoomSummary{
		RoomID:      r.ID,
		HostID:      r.host,
		Status:      r.state.Status,
		PlayerCount: len(r.players),
	}
}

func (r *Room) Snapshot() internal.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return internal.RoomSnapshot{
		RoomID:    r.ID,
		HostID:    r.host,
		GameState: r.state,
		Players:   r.players.Views(r.host),
	}
}

// =============================================================================
// END OF GAME
// =============================================================================

// End finishes the game. It is a no-op once the room has ended.
func (r *Room) End(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.end(reason)
}

// end requires r.mu.
func (r *Room) end(reason string) {
	if r.state.Status == internal.PhaseEnded {
		return
	}

	r.disarmClock()
	r.cancelReleases()

	r.state.Status = internal.PhaseEnded
	if reason == internal.ReasonPoliceWin {
		r.state.Winner = internal.WinnerPolice
	} else {
		r.state.Winner = internal.WinnerThief
	}

	r.log.Info("[End] game ended",
		zap.String("reason", reason),
		zap.String("winner", string(r.state.Winner)),
		zap.Int("remaining", r.state.RemainingTime))

	r.broadcast(internal.EventGameEnded, internal.GameEndedData{
		FinalState: r.state,
		Winner:     r.state.Winner,
	})
	r.lifecycle.emit(internal.LifecycleEvent{
		Type:      internal.LifecycleGameEnded,
		RoomID:    r.ID,
		At:        time.Now(),
		Reason:    reason,
		Winner:    r.state.Winner,
		StartTime: r.state.StartTime,
		Remaining: r.state.RemainingTime,
		Players:   r.players.Views(r.host),
	})
}

// halt stops background work for process shutdown without ending the game.
func (r *Room) halt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.halted = true
	r.disarmClock()
	r.cancelReleases()
	_, _ = r.fence.RemoveAll()
}

// =============================================================================
// OUTBOUND HELPERS (require r.mu)
// =============================================================================

func (r *Room) broadcast(eventType string, data any) {
	r.sender.Broadcast(r.ID, message(eventType, data))
}

// sendToSession delivers privately to the session's last known connection.
func (r *Room) sendToSession(sessionID, eventType string, data any) {
	player, ok := r.players.Get(sessionID)
	if !ok || player.ConnID == "" {
		r.log.Debug("[sendToSession] no live connection, dropping",
			zap.String("session_id", sessionID), zap.String("event", eventType))
		return
	}
	r.sender.SendTo(player.ConnID, message(eventType, data))
}

func (r *Room) broadcastPlayers() {
	r.broadcast(internal.EventPlayersUpdated, r.players.Views(r.host))
}
