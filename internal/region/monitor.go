// Package region is the boundary to circular-area monitoring: a Monitor
// registers geofences, and enter/exit transitions are delivered to explicit
// per-connection subscribers.
package region

import (
	"errors"
)

var ErrInvalidRegion = errors.New("invalid region")

type Transition string

const (
	Enter Transition = "enter"
	Exit  Transition = "exit"
)

type Event struct {
	RegionID   string
	Transition Transition
}

// Monitor mirrors the native region-monitoring contract.
type Monitor interface {
	Register(id string, lat, lng, radius float64) (bool, error)
	Remove(id string) (bool, error)
	RemoveAll() (bool, error)
}

// Deliverer hands an event to whoever subscribed for observerID.
type Deliverer interface {
	Deliver(observerID string, ev Event) bool
}
