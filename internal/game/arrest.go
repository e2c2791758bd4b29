package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
)

// =============================================================================
// ARREST - CAPTURE CHALLENGE / RESPONSE
// =============================================================================

// RequestArrest forwards a capture challenge to the thief. Nothing changes
// until the thief answers; an unanswered challenge leaves the thief alive.
func (r *Room) RequestArrest(policeID, thiefID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Status != internal.PhasePlaying {
		return fmt.Errorf("%w: game is %s", ErrInvalidState, r.state.Status)
	}
	police, ok := r.players.Get(policeID)
	if !ok {
		return fmt.Errorf("%w: player %s is not in room %s", ErrNotFound, policeID, r.ID)
	}
	if police.Team != internal.TeamPolice {
		return fmt.Errorf("%w: only police can request an arrest", ErrForbidden)
	}
	thief, ok := r.players.Get(thiefID)
	if !ok {
		return fmt.Errorf("%w: player %s is not in room %s", ErrNotFound, thiefID, r.ID)
	}
	if thief.Team != internal.TeamThief {
		return fmt.Errorf("%w: %s is not a thief", ErrInvalidArgument, thiefID)
	}
	if thief.Status != internal.StatusAlive {
		return fmt.Errorf("%w: %s is already arrested", ErrInvalidState, thiefID)
	}

	r.log.Info("[RequestArrest] arrest requested",
		zap.String("police_id", policeID), zap.String("thief_id", thiefID))

	r.sendToSession(thiefID, internal.EventArrestRequested, internal.ArrestRequestedData{
		PoliceID:  policeID,
		TimeLimit: r.cfg.ArrestTimeLimit,
	})
	return nil
}

// RespondArrest applies the thief's answer. Accepting marks the thief dead
// and, if that was the last free thief, ends the game in the same critical
// section.
func (r *Room) RespondArrest(thiefID, policeID string, accept bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Status != internal.PhasePlaying {
		return fmt.Errorf("%w: game is %s", ErrInvalidState, r.state.Status)
	}
	thief, ok := r.players.Get(thiefID)
	if !ok {
		return fmt.Errorf("%w: player %s is not in room %s", ErrNotFound, thiefID, r.ID)
	}
	if thief.Team != internal.TeamThief {
		return fmt.Errorf("%w: only thieves can answer an arrest", ErrForbidden)
	}
	if !accept {
		r.log.Info("[RespondArrest] arrest rejected",
			zap.String("thief_id", thiefID), zap.String("police_id", policeID))
		return nil
	}
	if thief.Status != internal.StatusAlive {
		return fmt.Errorf("%w: %s is already arrested", ErrInvalidState, thiefID)
	}

	thief.Status = internal.StatusDead

	r.log.Info("[RespondArrest] thief arrested",
		zap.String("thief_id", thiefID), zap.String("police_id", policeID))

	r.broadcast(internal.EventPlayerArrested, internal.PlayerArrestedData{
		ThiefID:  thiefID,
		PoliceID: policeID,
	})
	r.lifecycle.emit(internal.LifecycleEvent{
		Type:      internal.LifecyclePlayerArrested,
		RoomID:    r.ID,
		At:        time.Now(),
		ThiefID:   thiefID,
		PoliceID:  policeID,
		Remaining: r.state.RemainingTime,
	})

	r.checkGameOver()
	return nil
}

// checkGameOver requires r.mu.
func (r *Room) checkGameOver() {
	if r.players.AliveThieves() == 0 {
		r.end(internal.ReasonPoliceWin)
	}
}
