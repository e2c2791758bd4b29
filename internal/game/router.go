package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
	"github.com/scythe504/gyeongdo-backend/internal/region"
	"github.com/scythe504/gyeongdo-backend/internal/utils"
)

const presenceTimeout = 500 * time.Millisecond

// PresenceTracker records which sessions have a live connection. It is
// advisory and never changes player state.
type PresenceTracker interface {
	Touch(ctx context.Context, roomID, sessionID string) error
	Leave(ctx context.Context, roomID, sessionID string) error
}

type nopPresence struct{}

func (nopPresence) Touch(context.Context, string, string) error { return nil }
func (nopPresence) Leave(context.Context, string, string) error { return nil }

type call struct {
	connID  string
	binding Binding
	room    *Room
	data    json.RawMessage
}

type route struct {
	requiresJoin bool
	requiresHost bool
	handle       func(ctx context.Context, c *call) error
}

// Router maps inbound event names to room operations.
type Router struct {
	rooms    *Registry
	conns    *ConnectionRegistry
	presence PresenceTracker
	routes   map[string]route
	log      *zap.Logger
}

func NewRouter(rooms *Registry, conns *ConnectionRegistry, presence PresenceTracker, logger *zap.Logger) *Router {
	if presence == nil {
		presence = nopPresence{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		rooms:    rooms,
		conns:    conns,
		presence: presence,
		log:      logger,
	}
	r.routes = map[string]route{
		internal.EventRoomJoin:         {handle: r.handleJoin},
		internal.EventRoleAssign:       {requiresJoin: true, requiresHost: true, handle: r.handleAssignRole},
		internal.EventGameStart:        {requiresJoin: true, requiresHost: true, handle: r.handleStart},
		internal.EventLocationUpdate:   {requiresJoin: true, handle: r.handleLocation},
		internal.EventArrestRequest:    {requiresJoin: true, handle: r.handleArrestRequest},
		internal.EventArrestRespond:    {requiresJoin: true, handle: r.handleArrestRespond},
		internal.EventJailbreakTrigger: {requiresJoin: true, handle: r.handleJailbreak},
		internal.EventRegionRegister:   {requiresJoin: true, requiresHost: true, handle: r.handleRegionRegister},
		internal.EventRegionRemove:     {requiresJoin: true, requiresHost: true, handle: r.handleRegionRemove},
	}
	return r
}

// Handles reports whether eventType has a route.
func (r *Router) Handles(eventType string) bool {
	_, ok := r.routes[eventType]
	return ok
}

// Connect subscribes connID to region transitions raised for it.
func (r *Router) Connect(connID string) {
	sender := r.rooms.sender
	r.rooms.subs.Subscribe(connID, func(ev region.Event) {
		sender.SendTo(connID, message(internal.EventRegion, internal.RegionEventData{
			ID:         ev.RegionID,
			Transition: string(ev.Transition),
		}))
	})
}

// Disconnect drops the connection mapping only. Player entries are kept so
// the session can rejoin.
func (r *Router) Disconnect(connID string) {
	r.rooms.subs.Unsubscribe(connID)

	binding, ok := r.conns.Unbind(connID)
	if !ok {
		return
	}
	current := false
	if room, exists := r.rooms.Get(binding.RoomID); exists {
		room.fence.Forget(connID)
		current = room.ConnectedVia(binding.SessionID, connID)
	}

	// a session that already rejoined on a newer connection stays online
	if current {
		r.leave(binding)
	}

	r.log.Info("[Disconnect] connection unbound",
		zap.String("conn_id", connID),
		zap.String("room_id", binding.RoomID),
		zap.String("session_id", binding.SessionID))
}

// Dispatch runs one inbound event. Events from connections that have not
// joined a room are dropped. Operation errors are sent back to connID only
// and also returned.
func (r *Router) Dispatch(ctx context.Context, connID string, msg internal.Message[json.RawMessage]) error {
	rt, ok := r.routes[msg.Type]
	if !ok {
		r.log.Warn("[Dispatch] unknown event", zap.String("conn_id", connID), zap.String("event", msg.Type))
		return nil
	}

	c := &call{connID: connID, data: msg.Data}
	if rt.requiresJoin {
		binding, bound := r.conns.Resolve(connID)
		if !bound {
			r.log.Debug("[Dispatch] connection has not joined, dropping",
				zap.String("conn_id", connID), zap.String("event", msg.Type))
			return nil
		}
		room, exists := r.rooms.Get(binding.RoomID)
		if !exists {
			return nil
		}
		c.binding = binding
		c.room = room

		if rt.requiresHost && !room.IsHost(binding.SessionID) {
			err := fmt.Errorf("%w: only host can send %s", ErrForbidden, msg.Type)
			r.replyError(connID, msg.Type, err)
			return err
		}
	}

	err := rt.handle(ctx, c)
	if c.room != nil {
		r.touch(ctx, c.binding)
	}
	if err != nil {
		r.log.Info("[Dispatch] event rejected",
			zap.String("conn_id", connID),
			zap.String("event", msg.Type),
			zap.String("code", ErrorCode(err)),
			zap.Error(err))
		r.replyError(connID, msg.Type, err)
		return err
	}
	return nil
}

func (r *Router) replyError(connID, eventType string, err error) {
	text := err.Error()
	if ErrorCode(err) == "internal" {
		text = "internal error"
	}
	r.rooms.sender.SendTo(connID, message(internal.EventError, internal.ErrorData{
		Message: text,
		Code:    ErrorCode(err),
		Event:   eventType,
	}))
}

func (r *Router) leave(b Binding) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := r.presence.Leave(ctx, b.RoomID, b.SessionID); err != nil {
		r.log.Warn("[leave] presence leave failed",
			zap.String("room_id", b.RoomID), zap.String("session_id", b.SessionID), zap.Error(err))
	}
}

func (r *Router) touch(ctx context.Context, b Binding) {
	ctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	if err := r.presence.Touch(ctx, b.RoomID, b.SessionID); err != nil {
		r.log.Debug("[touch] presence refresh failed", zap.String("room_id", b.RoomID), zap.Error(err))
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

func (r *Router) handleJoin(ctx context.Context, c *call) error {
	req, err := decode[internal.JoinRequest](c.data)
	if err != nil {
		return err
	}
	req.RoomID = utils.NormalizeID(req.RoomID)
	req.SessionID = utils.NormalizeID(req.SessionID)
	if req.RoomID == "" || req.SessionID == "" {
		return fmt.Errorf("%w: roomId and sessionId are required", ErrInvalidArgument)
	}

	room := r.rooms.GetOrCreate(req.RoomID, req.SessionID)
	if prev, ok := r.conns.Resolve(c.connID); ok && prev != (Binding{RoomID: req.RoomID, SessionID: req.SessionID}) {
		if old, exists := r.rooms.Get(prev.RoomID); exists && old.detach(prev.SessionID, c.connID) {
			r.leave(prev)
		}
	}
	r.conns.Bind(c.connID, req.RoomID, req.SessionID)

	c.binding = Binding{RoomID: req.RoomID, SessionID: req.SessionID}
	c.room = room
	return room.Join(req.SessionID, req.Nickname, c.connID)
}

func (r *Router) handleAssignRole(ctx context.Context, c *call) error {
	req, err := decode[internal.AssignRoleRequest](c.data)
	if err != nil {
		return err
	}
	if req.TargetSessionID == "" {
		return fmt.Errorf("%w: targetSessionId is required", ErrInvalidArgument)
	}
	return c.room.AssignRole(c.binding.SessionID, req.TargetSessionID, req.Team)
}

func (r *Router) handleStart(ctx context.Context, c *call) error {
	return c.room.Start(c.binding.SessionID)
}

func (r *Router) handleLocation(ctx context.Context, c *call) error {
	req, err := decode[internal.LocationUpdate](c.data)
	if err != nil {
		return err
	}
	if req.Lat == nil || req.Lng == nil {
		return fmt.Errorf("%w: lat and lng are required", ErrInvalidArgument)
	}
	return c.room.UpdateLocation(c.binding.SessionID, *req.Lat, *req.Lng)
}

func (r *Router) handleArrestRequest(ctx context.Context, c *call) error {
	req, err := decode[internal.ArrestRequest](c.data)
	if err != nil {
		return err
	}
	if req.ThiefID == "" {
		return fmt.Errorf("%w: thiefId is required", ErrInvalidArgument)
	}
	return c.room.RequestArrest(c.binding.SessionID, req.ThiefID)
}

func (r *Router) handleArrestRespond(ctx context.Context, c *call) error {
	req, err := decode[internal.ArrestResponse](c.data)
	if err != nil {
		return err
	}
	if req.PoliceID == "" {
		return fmt.Errorf("%w: policeId is required", ErrInvalidArgument)
	}
	return c.room.RespondArrest(c.binding.SessionID, req.PoliceID, req.Accept)
}

func (r *Router) handleJailbreak(ctx context.Context, c *call) error {
	return c.room.TriggerJailbreak(c.binding.SessionID)
}

func (r *Router) handleRegionRegister(ctx context.Context, c *call) error {
	req, err := decode[internal.RegionRequest](c.data)
	if err != nil {
		return err
	}
	return c.room.RegisterRegion(c.binding.SessionID, req)
}

func (r *Router) handleRegionRemove(ctx context.Context, c *call) error {
	req, err := decode[internal.RegionRequest](c.data)
	if err != nil {
		return err
	}
	if req.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidArgument)
	}
	return c.room.RemoveRegion(c.binding.SessionID, req.ID)
}

// decode treats a missing payload as the zero value so handlers can report
// which field is missing.
func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: malformed payload: %v", ErrInvalidArgument, err)
	}
	return v, nil
}
