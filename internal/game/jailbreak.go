package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
)

// =============================================================================
// JAILBREAK - DELAYED RESCUE
// =============================================================================

// TriggerJailbreak announces a rescue now and frees every arrested thief
// after the jailbreak delay, unless the game ends first.
func (r *Room) TriggerJailbreak(initiator string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.halted {
		return fmt.Errorf("%w: room is shutting down", ErrInvalidState)
	}
	if r.state.Status != internal.PhasePlaying {
		return fmt.Errorf("%w: game is %s", ErrInvalidState, r.state.Status)
	}
	player, ok := r.players.Get(initiator)
	if !ok {
		return fmt.Errorf("%w: player %s is not in room %s", ErrNotFound, initiator, r.ID)
	}
	if player.Team != internal.TeamThief {
		return fmt.Errorf("%w: only thieves can trigger a jailbreak", ErrForbidden)
	}

	r.broadcast(internal.EventJailbreakTriggered, internal.JailbreakTriggeredData{
		ThiefID:  initiator,
		Duration: wholeSeconds(r.cfg.JailbreakDelay),
	})
	id := r.scheduleRelease()

	r.log.Info("[TriggerJailbreak] release scheduled",
		zap.String("thief_id", initiator),
		zap.Uint64("release_id", id),
		zap.Duration("delay", r.cfg.JailbreakDelay))
	return nil
}

// scheduleRelease requires r.mu. The timer callback blocks on r.mu, so it
// cannot observe the map before the entry is stored.
func (r *Room) scheduleRelease() uint64 {
	r.nextReleaseID++
	id := r.nextReleaseID
	r.releases[id] = time.AfterFunc(r.cfg.JailbreakDelay, func() {
		r.release(id)
	})
	return id
}

func (r *Room) release(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, pending := r.releases[id]; !pending {
		return
	}
	delete(r.releases, id)

	if r.state.Status != internal.PhasePlaying {
		return
	}

	freed := r.players.ReviveThieves()

	r.log.Info("[release] jailbreak resolved",
		zap.Uint64("release_id", id), zap.Strings("freed", freed))

	r.broadcast(internal.EventPlayerFreed, internal.PlayerFreedData{FreedThieves: freed})
}

// cancelReleases requires r.mu. A callback already waiting on the lock finds
// its id gone and returns without effect.
func (r *Room) cancelReleases() {
	for id, timer := range r.releases {
		timer.Stop()
		delete(r.releases, id)
	}
}

func wholeSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
