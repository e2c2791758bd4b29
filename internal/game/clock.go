package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
)

// =============================================================================
// GAME CLOCK
// =============================================================================

// gameClock is the handle for one armed countdown. A fire only applies while
// the handle is still the room's current clock, so nothing ticks after
// disarm even if the ticker already fired.
type gameClock struct {
	cancel context.CancelFunc
}

// armClock requires r.mu. Any previous clock is disarmed first.
func (r *Room) armClock() {
	r.disarmClock()

	ctx, cancel := context.WithCancel(context.Background())
	clock := &gameClock{cancel: cancel}
	r.clock = clock

	r.runningClocks.Add(1)
	go r.runClock(ctx, clock, r.cfg.TickInterval)

	r.log.Debug("[armClock] clock armed", zap.Duration("interval", r.cfg.TickInterval))
}

// disarmClock requires r.mu.
func (r *Room) disarmClock() {
	if r.clock == nil {
		return
	}
	r.clock.cancel()
	r.clock = nil
	r.log.Debug("[disarmClock] clock disarmed")
}

func (r *Room) runClock(ctx context.Context, clock *gameClock, interval time.Duration) {
	defer r.runningClocks.Add(-1)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.fire(clock) {
				return
			}
		}
	}
}

// fire applies one tick for clock and reports whether it is still armed.
func (r *Room) fire(clock *gameClock) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clock != clock {
		return false
	}
	r.tick()
	return r.clock == clock
}

// Tick advances the countdown by one second. The armed clock calls it once
// per interval; tests may drive it directly.
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tick()
}

// tick requires r.mu.
func (r *Room) tick() {
	if r.state.Status != internal.PhasePlaying {
		return
	}

	r.state.RemainingTime--
	if r.state.RemainingTime > 0 {
		r.broadcast(internal.EventTimerUpdate, internal.TimerUpdateData{
			RemainingTime: r.state.RemainingTime,
			Status:        r.state.Status,
		})
		return
	}

	r.state.RemainingTime = 0
	r.end(internal.ReasonTimeUp)
}
