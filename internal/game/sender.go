package game

import (
	"github.com/scythe504/gyeongdo-backend/internal"
)

// Sender delivers outbound messages. Rooms call it while holding their lock,
// so implementations must only enqueue and never call back into a Room.
type Sender interface {
	// Broadcast targets every connection currently bound to roomID.
	Broadcast(roomID string, msg internal.Message[any])
	// SendTo targets a single connection and drops the message if it is gone.
	SendTo(connID string, msg internal.Message[any])
}

func message(eventType string, data any) internal.Message[any] {
	return internal.Message[any]{Type: eventType, Data: data}
}

type nopSender struct{}

func (nopSender) Broadcast(string, internal.Message[any]) {}
func (nopSender) SendTo(string, internal.Message[any])    {}
