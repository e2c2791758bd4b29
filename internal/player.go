package internal

import (
	"time"
)

type Player struct {
	SessionID string       `json:"sessionId"`
	Nickname  string       `json:"nickname"`
	Team      Team         `json:"team"`
	Status    PlayerStatus `json:"status"`

	// ConnID is the last connection this session joined from. It is not
	// cleared on disconnect, so private sends to it may be dropped.
	ConnID   string    `json:"-"`
	Location *Location `json:"location,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PlayerView is the public roster entry sent in players:updated and
// game:started.
type PlayerView struct {
	SessionID string       `json:"sessionId"`
	Nickname  string       `json:"nickname"`
	Team      Team         `json:"team"`
	Status    PlayerStatus `json:"status"`
	IsHost    bool         `json:"isHost"`
	Location  *Location    `json:"location,omitempty"`
}

func NewPlayer(sessionID, nickname, connID string) *Player {
	return &Player{
		SessionID: sessionID,
		Nickname:  nickname,
		Team:      TeamUnassigned,
		Status:    StatusAlive,
		ConnID:    connID,
		JoinedAt:  time.Now(),
	}
}

func (p *Player) ToView(hostID string) PlayerView {
	view := PlayerView{
		SessionID: p.SessionID,
		Nickname:  p.Nickname,
		Team:      p.Team,
		Status:    p.Status,
		IsHost:    p.SessionID == hostID,
	}
	if p.Location != nil {
		loc := *p.Location
		view.Location = &loc
	}
	return view
}

func (p *Player) IsAliveThief() bool {
	return p.Team == TeamThief && p.Status == StatusAlive
}
