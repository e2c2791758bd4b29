package region

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/scythe504/gyeongdo-backend/internal/utils"
)

const earthRadiusMeters = 6371000.0

type circle struct {
	lat, lng, radius float64
}

// Geofence is an in-process Monitor. Positions reported through Report are
// tested against every registered circle and transitions are raised to the
// reporting observer.
type Geofence struct {
	mu      sync.Mutex
	regions map[string]circle
	inside  map[string]map[string]bool // observer -> region -> inside
	out     Deliverer
}

var _ Monitor = (*Geofence)(nil)

func NewGeofence(out Deliverer) *Geofence {
	return &Geofence{
		regions: make(map[string]circle),
		inside:  make(map[string]map[string]bool),
		out:     out,
	}
}

// Register adds or replaces a circular region; radius is in meters.
func (g *Geofence) Register(id string, lat, lng, radius float64) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: empty id", ErrInvalidRegion)
	}
	if !utils.ValidCoordinates(lat, lng) {
		return false, fmt.Errorf("%w: coordinates out of range", ErrInvalidRegion)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return false, fmt.Errorf("%w: radius must be positive", ErrInvalidRegion)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.regions[id] = circle{lat: lat, lng: lng, radius: radius}
	for _, state := range g.inside {
		delete(state, id)
	}
	return true, nil
}

func (g *Geofence) Remove(id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.regions[id]; !ok {
		return false, nil
	}
	delete(g.regions, id)
	for _, state := range g.inside {
		delete(state, id)
	}
	return true, nil
}

func (g *Geofence) RemoveAll() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.regions = make(map[string]circle)
	g.inside = make(map[string]map[string]bool)
	return true, nil
}

// Forget drops tracking state for an observer that went away.
func (g *Geofence) Forget(observerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inside, observerID)
}

// Report evaluates a position for observerID and returns the transitions it
// caused, in region id order. Each transition is also delivered.
func (g *Geofence) Report(observerID string, lat, lng float64) []Event {
	g.mu.Lock()
	state, ok := g.inside[observerID]
	if !ok {
		state = make(map[string]bool)
		g.inside[observerID] = state
	}

	ids := make([]string, 0, len(g.regions))
	for id := range g.regions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var events []Event
	for _, id := range ids {
		c := g.regions[id]
		in := Distance(lat, lng, c.lat, c.lng) <= c.radius
		was := state[id]
		switch {
		case in && !was:
			events = append(events, Event{RegionID: id, Transition: Enter})
		case !in && was:
			events = append(events, Event{RegionID: id, Transition: Exit})
		}
		state[id] = in
	}
	g.mu.Unlock()

	if g.out != nil {
		for _, ev := range events {
			g.out.Deliver(observerID, ev)
		}
	}
	return events
}

// Distance is the great-circle distance in meters.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}
