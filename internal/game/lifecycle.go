package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
)

const (
	lifecycleBuffer  = 256
	lifecycleTimeout = 5 * time.Second
)

// LifecycleSink receives game boundary events out of band (result archive,
// event stream). Publish runs on a background worker, never under a room
// lock.
type LifecycleSink interface {
	Publish(ctx context.Context, ev internal.LifecycleEvent) error
}

type lifecycleFanout struct {
	mu     sync.RWMutex
	closed bool
	events chan internal.LifecycleEvent
	sinks  []LifecycleSink
	done   chan struct{}
	log    *zap.Logger
}

func newLifecycleFanout(sinks []LifecycleSink, log *zap.Logger) *lifecycleFanout {
	f := &lifecycleFanout{
		events: make(chan internal.LifecycleEvent, lifecycleBuffer),
		sinks:  sinks,
		done:   make(chan struct{}),
		log:    log,
	}
	go f.run()
	return f
}

// emit never blocks; events are dropped when the buffer is full or the
// fanout has been closed.
func (f *lifecycleFanout) emit(ev internal.LifecycleEvent) {
	if len(f.sinks) == 0 {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.events <- ev:
	default:
		f.log.Warn("[lifecycle] buffer full, dropping event",
			zap.String("room_id", ev.RoomID), zap.String("event", ev.Type))
	}
}

func (f *lifecycleFanout) run() {
	defer close(f.done)
	for ev := range f.events {
		for _, sink := range f.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
			if err := sink.Publish(ctx, ev); err != nil {
				f.log.Error("[lifecycle] sink publish failed",
					zap.String("room_id", ev.RoomID), zap.String("event", ev.Type), zap.Error(err))
			}
			cancel()
		}
	}
}

// close drains queued events and waits for the worker to exit.
func (f *lifecycleFanout) close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		<-f.done
		return
	}
	f.closed = true
	close(f.events)
	f.mu.Unlock()
	<-f.done
}
