package internal

import (
	"sort"
)

// Roster is a room's players keyed by session id.
type Roster map[string]*Player

func (r Roster) Get(sessionID string) (*Player, bool) {
	p, ok := r[sessionID]
	return p, ok
}

func (r Roster) AliveThieves() int {
	count := 0
	for _, player := range r {
		if player.IsAliveThief() {
			count++
		}
	}
	return count
}

// ReviveThieves flips every dead thief back to alive and returns their
// session ids in a stable order.
func (r Roster) ReviveThieves() []string {
	freed := make([]string, 0)
	for _, player := range r {
		if player.Team == TeamThief && player.Status == StatusDead {
			player.Status = StatusAlive
			freed = append(freed, player.SessionID)
		}
	}
	sort.Strings(freed)
	return freed
}

// Views returns the public roster ordered by join time, then session id.
func (r Roster) Views(hostID string) []PlayerView {
	players := make([]*Player, 0, len(r))
	for _, player := range r {
		players = append(players, player)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].SessionID < players[j].SessionID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})

	views := make([]PlayerView, 0, len(players))
	for _, player := range players {
		views = append(views, player.ToView(hostID))
	}
	return views
}
