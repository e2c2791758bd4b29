package game

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
	"github.com/scythe504/gyeongdo-backend/internal/region"
	"github.com/scythe504/gyeongdo-backend/internal/utils"
)

// =============================================================================
// LOBBY - JOIN, ROLES & START
// =============================================================================

// Join adds sessionID to the room or, for a known session, treats it as a
// reconnect: team and status are kept and the connection is refreshed.
func (r *Room) Join(sessionID, nickname, connID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: sessionId is required", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	player, exists := r.players.Get(sessionID)
	if !exists {
		if nickname == "" {
			nickname = utils.DefaultNickname(sessionID)
		}
		player = internal.NewPlayer(sessionID, nickname, connID)
		if len(r.players) == 0 {
			r.host = sessionID
		}
		r.players[sessionID] = player

		r.log.Info("[Join] added player",
			zap.String("session_id", sessionID),
			zap.String("nickname", nickname),
			zap.Int("players", len(r.players)))
	} else {
		if player.ConnID != "" && player.ConnID != connID {
			r.fence.Forget(player.ConnID)
		}
		player.ConnID = connID
		if nickname != "" {
			player.Nickname = nickname
		}

		r.log.Info("[Join] player reconnected",
			zap.String("session_id", sessionID),
			zap.String("team", string(player.Team)),
			zap.String("status", string(player.Status)))
	}

	r.sendToSession(sessionID, internal.EventRoomJoined, internal.RoomJoinedData{
		RoomID: r.ID,
		MyTeam: player.Team,
		IsHost: r.host == sessionID,
	})
	r.broadcastPlayers()
	return nil
}

// AssignRole lets the host put a member on a team before the game starts.
func (r *Room) AssignRole(requester, target string, team internal.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.host {
		return fmt.Errorf("%w: only host can assign roles", ErrForbidden)
	}
	if !team.Valid() {
		return fmt.Errorf("%w: unknown team %q", ErrInvalidArgument, team)
	}
	player, ok := r.players.Get(target)
	if !ok {
		return fmt.Errorf("%w: player %s is not in room %s", ErrNotFound, target, r.ID)
	}
	if r.state.Status != internal.PhaseWaiting {
		return fmt.Errorf("%w: roles are fixed once the game has started", ErrInvalidState)
	}

	player.Team = team

	r.log.Info("[AssignRole] team assigned",
		zap.String("session_id", target), zap.String("team", string(team)))

	r.broadcastPlayers()
	r.sendToSession(target, internal.EventRoleAssigned, internal.RoleAssignedData{Team: team})
	return nil
}

// Start moves a waiting room into play and arms its clock.
func (r *Room) Start(requester string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.host {
		return fmt.Errorf("%w: only host can start the game", ErrForbidden)
	}
	if r.halted {
		return fmt.Errorf("%w: room is shutting down", ErrInvalidState)
	}
	if r.state.Status != internal.PhaseWaiting {
		return fmt.Errorf("%w: game is %s", ErrInvalidState, r.state.Status)
	}

	now := time.Now()
	r.state = internal.GameState{
		Status:        internal.PhasePlaying,
		StartTime:     &now,
		RemainingTime: int(r.cfg.GameDuration / time.Second),
		Winner:        internal.WinnerNone,
	}
	r.armClock()

	players := r.players.Views(r.host)

	r.log.Info("[Start] game started",
		zap.Int("players", len(players)),
		zap.Int("remaining", r.state.RemainingTime))

	r.broadcast(internal.EventGameStarted, internal.GameStartedData{
		GameState: r.state,
		Players:   players,
	})
	r.lifecycle.emit(internal.LifecycleEvent{
		Type:      internal.LifecycleGameStarted,
		RoomID:    r.ID,
		At:        now,
		StartTime: r.state.StartTime,
		Remaining: r.state.RemainingTime,
		Players:   players,
	})
	return nil
}

// =============================================================================
// LOCATION & REGIONS
// =============================================================================

// UpdateLocation records an advisory position and feeds the room geofence.
func (r *Room) UpdateLocation(sessionID string, lat, lng float64) error {
	if !utils.ValidCoordinates(lat, lng) {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: player %s is not in room %s", ErrNotFound, sessionID, r.ID)
	}
	player.Location = &internal.Location{Lat: lat, Lng: lng, UpdatedAt: time.Now()}

	if player.ConnID != "" {
		r.fence.Report(player.ConnID, lat, lng)
	}
	return nil
}

// RegisterRegion adds a circular area (e.g. the jail) to the room geofence.
func (r *Room) RegisterRegion(requester string, req internal.RegionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.host {
		return fmt.Errorf("%w: only host can register regions", ErrForbidden)
	}
	if _, err := r.fence.Register(req.ID, req.Lat, req.Lng, req.Radius); err != nil {
		if errors.Is(err, region.ErrInvalidRegion) {
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return err
	}

	r.log.Info("[RegisterRegion] region registered",
		zap.String("region_id", req.ID), zap.Float64("radius", req.Radius))
	return nil
}

func (r *Room) RemoveRegion(requester, regionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.host {
		return fmt.Errorf("%w: only host can remove regions", ErrForbidden)
	}
	removed, err := r.fence.Remove(regionID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: region %s", ErrNotFound, regionID)
	}
	return nil
}
